package cards

import (
	"os"
	"time"
)

// Image is an open card file. Callers close File.
type Image struct {
	File     *os.File
	Filename string
	ModTime  time.Time
}
