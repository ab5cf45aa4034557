package vault

import (
	"io"

	"mpkv/pkg/compression"
	"mpkv/pkg/store"
)

// Backup streams a point-in-time snapshot of the underlying log through
// the named codec into dst and returns the compressed byte count. Writes
// are blocked while the snapshot is taken.
func (v *Vault) Backup(dst io.Writer, codec string) (int64, error) {
	pr, pw := io.Pipe()
	go func() {
		_, err := v.st.Backup(pw)
		pw.CloseWithError(err)
	}()

	n, err := compression.Compress(codec, pr, dst)
	// Unblock the snapshot goroutine if compression bailed out early.
	pr.CloseWithError(err)
	return n, err
}

// Restore decompresses src with the named codec and installs it as the
// log under dataDir. The vault must not be open; open it afterwards to
// replay and verify the restored data.
func Restore(dataDir string, src io.Reader, codec string) error {
	pr, pw := io.Pipe()
	go func() {
		_, err := compression.Decompress(codec, src, pw)
		pw.CloseWithError(err)
	}()

	err := store.Restore(dataDir, pr)
	pr.CloseWithError(err)
	return err
}
