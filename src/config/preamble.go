package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

// ErrNoPreamble is returned when the preamble file does not exist.
var ErrNoPreamble = errors.New("preamble file not found")

// LoadPreamble reads the fixed instruction prefix sent with every prompt.
// The content is used verbatim.
func LoadPreamble(fsys afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNoPreamble, path)
		}
		return "", fmt.Errorf("failed to read preamble: %w", err)
	}
	return string(data), nil
}
