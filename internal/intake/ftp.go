package intake

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
)

// remote abstracts the FTP operations a sweep needs, so tests can run
// against an in-memory server.
type remote interface {
	// ListFiles returns the names of plain files directly under dir, sorted.
	// A missing directory reads as an empty listing.
	ListFiles(dir string) ([]string, error)
	// ListDirs returns the names of subdirectories directly under dir, sorted.
	ListDirs(dir string) ([]string, error)
	// Download copies a remote file to localPath, creating parent directories.
	Download(remotePath, localPath string) error
	// Move renames a remote file. Parent directories of dst must exist.
	Move(src, dst string) error
	// EnsureDir creates dir and its parents best-effort. FTP gives no
	// reliable way to tell "already exists" from a real failure, so errors
	// surface later through Move instead.
	EnsureDir(dir string)
	Close() error
}

// ftpRemote adapts an FTP control connection to the remote interface.
type ftpRemote struct {
	conn *ftp.ServerConn
}

func dialFTP(ctx context.Context, addr, user, password string, timeout time.Duration) (remote, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "intake: ftp dial")
	}

	if err := conn.Login(user, password); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "intake: ftp login")
	}

	return &ftpRemote{conn: conn}, nil
}

func (r *ftpRemote) ListFiles(dir string) ([]string, error) {
	entries, err := r.conn.List(dir)
	if err != nil {
		if isMissingPath(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "intake: list %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.Type == ftp.EntryTypeFile {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *ftpRemote) ListDirs(dir string) ([]string, error) {
	entries, err := r.conn.List(dir)
	if err != nil {
		if isMissingPath(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "intake: list %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.Type == ftp.EntryTypeFolder && e.Name != "." && e.Name != ".." {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *ftpRemote) Download(remotePath, localPath string) error {
	resp, err := r.conn.Retr(remotePath)
	if err != nil {
		return eris.Wrapf(err, "intake: retrieve %s", remotePath)
	}
	defer resp.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return eris.Wrap(err, "intake: create staging dir")
	}

	file, err := os.Create(localPath)
	if err != nil {
		return eris.Wrap(err, "intake: create staging file")
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, resp); err != nil {
		return eris.Wrapf(err, "intake: download %s", remotePath)
	}
	return nil
}

func (r *ftpRemote) Move(src, dst string) error {
	if err := r.conn.Rename(src, dst); err != nil {
		return eris.Wrapf(err, "intake: move %s", src)
	}
	return nil
}

func (r *ftpRemote) EnsureDir(dir string) {
	var cur string
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}
	for _, seg := range strings.Split(dir, "/") {
		if seg == "" {
			continue
		}
		cur = path.Join(cur, seg)
		// MakeDir fails when the directory already exists; that is fine.
		_ = r.conn.MakeDir(cur)
	}
}

func (r *ftpRemote) Close() error {
	if err := r.conn.Quit(); err != nil {
		return eris.Wrap(err, "intake: ftp quit")
	}
	return nil
}

// isMissingPath reports whether an FTP reply means the listed path does not
// exist. Servers answer 450 or 550 for both missing and empty directories.
func isMissingPath(err error) bool {
	var pe *textproto.Error
	if errors.As(err, &pe) {
		return pe.Code == 450 || pe.Code == 550
	}
	return false
}

// withDefaultPort appends the FTP control port when addr carries none.
func withDefaultPort(addr string) string {
	if addr == "" {
		return addr
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return net.JoinHostPort(addr, "21")
	}
	return addr
}
