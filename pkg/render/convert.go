package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	errs "github.com/matzehuels/isomatch/pkg/errors"
)

// rsvgConvert is the librsvg command used for png and pdf output.
const rsvgConvert = "rsvg-convert"

// ErrNoConverter is returned for png and pdf output when rsvg-convert is not
// on PATH.
var ErrNoConverter = errs.New(errs.ErrCodeUnsupported,
	"png and pdf output need rsvg-convert (apt install librsvg2-bin, brew install librsvg)")

// ToPDF converts an SVG document to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convertSVG(ctx, svg, FormatPDF)
}

// ToPNG converts an SVG document to PNG, scaled by zoom.
func ToPNG(ctx context.Context, svg []byte, zoom float64) ([]byte, error) {
	return convertSVG(ctx, svg, FormatPNG, "--zoom", strconv.FormatFloat(zoom, 'f', 2, 64))
}

func convertSVG(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgConvert)
	if err != nil {
		return nil, ErrNoConverter
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s to %s: %w: %s", rsvgConvert, format, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
