package resume

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示扫描发现恶意内容。
var ErrInfected = errors.New("malicious file detected")

// Scanner 检查上传内容。
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// NewScanner 在配置了 clamd 地址时返回 ClamdScanner，否则不扫描。
func NewScanner(addr string) Scanner {
	if addr == "" {
		return nopScanner{}
	}
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

// ClamdScanner 通过 clamd INSTREAM 扫描文件。
type ClamdScanner struct {
	client *clamd.Clamd
}

// Scan 实现 Scanner。
func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			switch result.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return ErrInfected
			default:
				return fmt.Errorf("clamd scan: %s", result.Description)
			}
		}
	}
}

type nopScanner struct{}

func (nopScanner) Scan(context.Context, io.Reader) error { return nil }
