// Package fs provides file-system adapters: description loading, run report
// persistence and waiting for a file to appear.
package fs

import (
	"fmt"
	"os"

	"github.com/bft-labs/driveseq/internal/description"
	"github.com/bft-labs/driveseq/internal/domain"
)

// maxDescriptionSize bounds the size of a description document.
const maxDescriptionSize = 16 << 20

// LoadDescription reads and parses the description at path. The format is
// chosen from the file extension.
func LoadDescription(path string) (domain.Description, error) {
	format, err := description.FormatFromPath(path)
	if err != nil {
		return domain.Description{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Description{}, fmt.Errorf("read description: %w", err)
	}
	if info.Size() > maxDescriptionSize {
		return domain.Description{}, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrMalformedDescription, path, maxDescriptionSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Description{}, fmt.Errorf("read description: %w", err)
	}

	desc, err := description.Parse(data, format)
	if err != nil {
		return domain.Description{}, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}
