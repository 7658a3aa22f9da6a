package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFRasterizer_PageOrder(t *testing.T) {
	r := &fakeRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		prefix := args[len(args)-1]
		for _, n := range []int{1, 2, 10} {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, n), []byte(fmt.Sprintf("page%d", n)), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}}
	p := PDFRasterizer{Runner: r, DPI: 200}
	pages, err := p.Rasterize(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "page1", string(pages[0]))
	assert.Equal(t, "page2", string(pages[1]))
	assert.Equal(t, "page10", string(pages[2]))

	require.Len(t, r.calls, 1)
	assert.Equal(t, "pdftoppm", r.calls[0].name)
	assert.Equal(t, []string{"-r", "200", "-png"}, r.calls[0].args[:3])
}

func TestPDFRasterizer_MaxPages(t *testing.T) {
	r := &fakeRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		prefix := args[len(args)-1]
		for n := 1; n <= 3; n++ {
			_ = os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, n), []byte("p"), 0o644)
		}
		return nil, nil, nil
	}}
	pages, err := PDFRasterizer{Runner: r, MaxPages: 1}.Rasterize(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestPDFRasterizer_Errors(t *testing.T) {
	_, err := PDFRasterizer{Runner: &fakeRunner{}}.Rasterize(context.Background(), []byte("%PDF"))
	require.Error(t, err)

	failing := &fakeRunner{fn: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("Syntax Error"), errors.New("exit status 1")
	}}
	_, err = PDFRasterizer{Runner: failing}.Rasterize(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Syntax Error")
}
