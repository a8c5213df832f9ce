package catalog

import (
	"fmt"

	"github.com/dar-go/dar/derr"
)

func newDuplicateNameError(parent, name string) error {
	return derr.E(derr.Data, fmt.Sprintf("catalog: duplicate child name %q in directory %q", name, parent))
}
