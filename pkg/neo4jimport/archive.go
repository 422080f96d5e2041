// Package neo4jimport consumes Zstandard-compressed Neo4j archives (§6):
// it extracts the neostore.* record files from the archive, parses the
// node and relationship record stores, and materializes the contents
// into a live graph. Constraints and native indexes are never imported;
// callers recreate them afterward.
package neo4jimport

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/grafito-db/grafito/internal/gerrors"
)

// extractStores decompresses a Zstandard-compressed tar archive of a
// Neo4j data directory and writes every neostore.* member to destDir,
// returning their extracted paths keyed by base filename (e.g.
// "neostore.nodestore.db").
func extractStores(archivePath, destDir string) (map[string]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &gerrors.ImportError{Source: archivePath, Message: err.Error()}
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, &gerrors.ImportError{Source: archivePath, Message: "zstd: " + err.Error()}
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &gerrors.ImportError{Source: archivePath, Message: err.Error()}
	}

	paths := make(map[string]string)
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &gerrors.ImportError{Source: archivePath, Message: "tar: " + err.Error()}
		}
		name := filepath.Base(hdr.Name)
		if hdr.Typeflag != tar.TypeReg || !strings.HasPrefix(name, "neostore.") {
			continue
		}
		outPath := filepath.Join(destDir, name)
		out, err := os.Create(outPath)
		if err != nil {
			return nil, &gerrors.ImportError{Source: archivePath, Message: err.Error()}
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return nil, &gerrors.ImportError{Source: archivePath, Message: err.Error()}
		}
		out.Close()
		paths[name] = outPath
	}
	if len(paths) == 0 {
		return nil, &gerrors.ImportError{Source: archivePath, Message: "archive contains no neostore.* files"}
	}
	return paths, nil
}
