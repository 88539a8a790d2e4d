package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Host   string `json:"host"`
	Dark   bool   `json:"dark"`
	Secret string `json:"-" output:"-"`
}

func TestPlainPrint(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewWithWriters("plain", &out, &errOut)

	require.NoError(t, f.Print(sample{Host: "https://host.example", Dark: true, Secret: "pcsk_x"}))
	assert.Equal(t, "Host\thttps://host.example\nDark\ttrue\n", out.String())

	out.Reset()
	require.NoError(t, f.Print("just a string"))
	assert.Equal(t, "just a string\n", out.String())
}

func TestPlainPrintList(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewWithWriters("plain", &out, &errOut)

	items := []sample{{Host: "a", Dark: false}, {Host: "b", Dark: true}}
	cols := []Column{{Name: "Host", Key: "Host"}, {Name: "Dark", Key: "Dark"}}
	require.NoError(t, f.PrintList(items, cols))
	assert.Equal(t, "Host\tDark\na\tfalse\nb\ttrue\n", out.String())

	assert.Error(t, f.PrintList("not a slice", cols))
}

func TestPlainErrorAndHint(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewWithWriters("plain", &out, &errOut)

	f.PrintError(errors.New("boom"))
	f.PrintHint("try again")
	f.PrintSuccess("saved")

	assert.Empty(t, out.String())
	assert.Equal(t, "error: boom\nhint: try again\nsaved\n", errOut.String())
}

func TestJSONFormatter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewWithWriters("json", &out, &errOut)

	require.NoError(t, f.Print(sample{Host: "h", Secret: "pcsk_x"}))
	assert.JSONEq(t, `{"host":"h","dark":false}`, out.String())

	out.Reset()
	require.NoError(t, f.PrintList([]sample{{Host: "a"}}, nil))
	var envelope struct {
		Count int              `json:"count"`
		Data  []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Count)
	assert.Equal(t, "a", envelope.Data[0]["host"])

	f.PrintHint("ignored")
	f.PrintSuccess("ignored")
	f.PrintError(errors.New("boom"))
	assert.JSONEq(t, `{"error":"boom"}`, errOut.String())
}

func TestUnknownModeFallsBackToPlain(t *testing.T) {
	f := NewWithWriters("sparkly", &bytes.Buffer{}, &bytes.Buffer{})
	assert.IsType(t, &plainFormatter{}, f)
}
