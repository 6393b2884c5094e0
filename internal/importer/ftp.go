package importer

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// FTPClient downloads supplier order files over FTP.
type FTPClient struct {
	timeout  time.Duration
	user     string
	password string
}

// NewFTPClient creates an FTPClient. Empty credentials fall back to
// anonymous login.
func NewFTPClient(timeout time.Duration, user, password string) *FTPClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if user == "" {
		user = "anonymous"
		password = "anonymous@"
	}
	return &FTPClient{timeout: timeout, user: user, password: password}
}

// FetchPurchases downloads a supplier order file and parses it into
// purchase candidates. The caller's context bounds both the transfer and
// the parse.
func (c *FTPClient) FetchPurchases(ctx context.Context, ftpURL string) ([]model.PurchaseCandidate, error) {
	rc, err := c.Download(ctx, ftpURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ParsePurchasesCSV(ctx, rc)
}

// Download connects, retrieves the file, and returns a reader. Closing the
// reader releases the FTP connection.
func (c *FTPClient) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(c.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp: dial")
	}

	if err := conn.Login(c.user, c.password); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp: login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp: retrieve")
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// DownloadToFile downloads the FTP URL to a local file. Returns bytes written.
func (c *FTPClient) DownloadToFile(ctx context.Context, ftpURL, path string) (int64, error) {
	rc, err := c.Download(ctx, ftpURL)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "ftp: create file")
	}
	defer file.Close()

	n, err := io.Copy(file, rc)
	if err != nil {
		return n, eris.Wrap(err, "ftp: write file")
	}
	return n, nil
}

func parseFTPURL(rawURL string) (host, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	if u.Path == "" {
		return "", "", eris.New("ftp: empty path in url")
	}
	return host, u.Path, nil
}

// ftpConnReader ties the response lifetime to the connection so a single
// Close releases both.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "ftp: close response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "ftp: quit")
	}
	return nil
}
