package report

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Sink hands a finished document to its destination and returns where it
// went.
type Sink interface {
	Save(name, contentType string, data []byte) (string, error)
}

// DirSink writes documents into a directory. An existing file is never
// overwritten: the name gets a -2, -3 ... suffix instead.
type DirSink struct {
	Dir string
}

const maxSuffix = 1000

func (s DirSink) Save(name, _ string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; i <= maxSuffix; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(s.Dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("too many files named %s in %s", name, s.Dir)
}

// HTTPSink sends the document as an attachment on the current request.
type HTTPSink struct {
	C *gin.Context
}

func (s HTTPSink) Save(name, contentType string, data []byte) (string, error) {
	s.C.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	s.C.Header("Cache-Control", "no-store")
	s.C.Data(http.StatusOK, contentType, data)
	return name, nil
}
