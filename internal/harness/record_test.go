package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenstore/lumen/value"
)

func TestRecordRender(t *testing.T) {
	var rec Record
	values := []value.Value{value.BigInt(1), value.Text("alpha"), value.Null{}}
	assert.NoError(t, rec.ScanValues(values))

	assert.Equal(t, "id=1 title=alpha plays=null", rec.Render([]string{"id", "title", "plays"}))
}

func TestRecordRenderMissingNames(t *testing.T) {
	var rec Record
	assert.NoError(t, rec.ScanValues([]value.Value{value.BigInt(1), value.Text("x")}))

	assert.Equal(t, "id=1 ?=x", rec.Render([]string{"id"}))
}
