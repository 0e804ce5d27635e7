package retriever

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const dialTimeout = 30 * time.Second

// RemoteClient abstracts the supplier file source. The production
// implementation speaks FTP over explicit TLS.
type RemoteClient interface {
	List(dir string) ([]string, error)
	Download(remotePath string, w io.Writer) error
	Quit() error
}

// DialFunc opens a fresh, authenticated connection to the file source.
type DialFunc func() (RemoteClient, error)

// Retriever downloads supplier feed files into the local staging area,
// preserving original file names. A connection or authentication failure
// aborts the whole retrieval; it happens once per run, not per file.
type Retriever struct {
	dial       DialFunc
	stagingDir string
}

func NewRetriever(dial DialFunc, stagingDir string) *Retriever {
	return &Retriever{
		dial:       dial,
		stagingDir: stagingDir,
	}
}

// Run lists remoteDir, filters to the expected extension (case-insensitive)
// and downloads every match. An empty slice, not an error, is returned when
// no matching files exist.
func (r *Retriever) Run(remoteDir, extension string) ([]string, error) {
	client, err := r.dial()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to file source: %w", err)
	}
	defer client.Quit()

	names, err := client.List(remoteDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", remoteDir, err)
	}

	var matching []string
	for _, name := range names {
		if strings.EqualFold(filepath.Ext(name), extension) {
			matching = append(matching, name)
		}
	}

	if len(matching) == 0 {
		slog.Info("No matching files in remote directory", "dir", remoteDir, "extension", extension)
		return []string{}, nil
	}

	if err := os.MkdirAll(r.stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	downloaded := make([]string, 0, len(matching))
	for _, name := range matching {
		localPath := filepath.Join(r.stagingDir, path.Base(name))
		if err := r.download(client, path.Join(remoteDir, path.Base(name)), localPath); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", name, err)
		}
		slog.Info("Downloaded feed file", "file", path.Base(name))
		downloaded = append(downloaded, localPath)
	}

	return downloaded, nil
}

func (r *Retriever) download(client RemoteClient, remotePath, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()

	if err := client.Download(remotePath, f); err != nil {
		return err
	}

	return f.Close()
}

// ftpClient adapts jlaffaye/ftp to the RemoteClient interface.
type ftpClient struct {
	conn *ftp.ServerConn
}

// DialFTPS returns a DialFunc that connects over FTP with explicit TLS and
// logs in with the given credentials.
func DialFTPS(host, port, user, password string) DialFunc {
	return func() (RemoteClient, error) {
		conn, err := ftp.Dial(net.JoinHostPort(host, port),
			ftp.DialWithTimeout(dialTimeout),
			ftp.DialWithExplicitTLS(&tls.Config{ServerName: host}))
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", host, err)
		}

		if err := conn.Login(user, password); err != nil {
			conn.Quit()
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}

		return &ftpClient{conn: conn}, nil
	}
}

func (c *ftpClient) List(dir string) ([]string, error) {
	return c.conn.NameList(dir)
}

func (c *ftpClient) Download(remotePath string, w io.Writer) error {
	resp, err := c.conn.Retr(remotePath)
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(w, resp)
	return err
}

func (c *ftpClient) Quit() error {
	return c.conn.Quit()
}
