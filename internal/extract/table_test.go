package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportPage = `
<html><body>
<h1>Tire Service Export</h1>
<table border="1">
  <tr><th> Receipt No </th><th>Truck No</th><th>Garage   Entry At</th></tr>
  <tr><td>R1</td><td> T1 </td><td>01/02/2024</td></tr>
  <tr><td>R2</td><td>T2</td><td>15/03/2024</td></tr>
</table>
</body></html>`

func TestRows_ParsesTable(t *testing.T) {
	rows, err := Rows(exportPage, Options{DropRagged: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "R1", rows[0]["Receipt No"])
	assert.Equal(t, "T1", rows[0]["Truck No"], "cell text is trimmed")
	assert.Equal(t, "01/02/2024", rows[0]["Garage Entry At"], "header whitespace runs collapse")
	assert.Equal(t, "R2", rows[1]["Receipt No"])
}

func TestRows_NoTable(t *testing.T) {
	_, err := Rows(`<html><body><h1>500 Internal Server Error</h1></body></html>`, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTable))
}

func TestRows_EmptyTableIsValid(t *testing.T) {
	rows, err := Rows(`<table><tr><th>a</th><th>b</th></tr></table>`, Options{DropRagged: true})
	require.NoError(t, err)
	assert.Empty(t, rows, "zero data rows is a valid empty result, not ErrNoTable")
}

func TestRows_RaggedRowSkipped(t *testing.T) {
	html := `
<table>
  <tr><th>a</th><th>b</th><th>c</th></tr>
  <tr><td>1</td><td>2</td><td>3</td></tr>
  <tr><td>merged cell spanning</td><td>x</td></tr>
  <tr><td>4</td><td>5</td><td>6</td></tr>
</table>`
	rows, err := Rows(html, Options{DropRagged: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0]["a"])
	assert.Equal(t, "4", rows[1]["a"])
}

func TestRows_RaggedRowKeptWhenLenient(t *testing.T) {
	html := `
<table>
  <tr><th>a</th><th>b</th><th>c</th></tr>
  <tr><td>1</td><td>2</td></tr>
</table>`
	rows, err := Rows(html, Options{DropRagged: false})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["a"])
	assert.Equal(t, "2", rows[0]["b"])
	assert.Equal(t, "", rows[0]["c"], "missing cells backfill empty")
}

func TestRows_HeaderFallbackToFirstRow(t *testing.T) {
	html := `
<table>
  <tr><td>receipt</td><td>truck</td></tr>
  <tr><td>R1</td><td>T1</td></tr>
</table>`
	rows, err := Rows(html, Options{DropRagged: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "R1", rows[0]["receipt"])
}

func TestRows_FirstTableWins(t *testing.T) {
	html := `
<table><tr><th>main</th></tr><tr><td>v1</td></tr></table>
<table><tr><th>nav</th></tr><tr><td>v2</td></tr></table>`
	rows, err := Rows(html, Options{DropRagged: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "v1", rows[0]["main"])
}

func TestRows_CellMarkupFlattened(t *testing.T) {
	html := `
<table>
  <tr><th>note</th></tr>
  <tr><td><b>front</b>
  axle</td></tr>
</table>`
	rows, err := Rows(html, Options{DropRagged: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "front axle", rows[0]["note"])
}
