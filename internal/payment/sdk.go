package payment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const sdkLoadTimeout = 15 * time.Second

// sdkGlobal is the handle the checkout script must define to be usable.
const sdkGlobal = "Razorpay"

// SDKLoader fetches the gateway checkout script once. Concurrent callers
// share a single in-flight fetch; a failed fetch is retried on the next call.
type SDKLoader struct {
	url        string
	httpClient *http.Client

	sfg    singleflight.Group
	mu     sync.RWMutex
	script []byte
}

func NewSDKLoader(url string, httpClient *http.Client) *SDKLoader {
	return &SDKLoader{url: url, httpClient: httpClient}
}

func (l *SDKLoader) Load(ctx context.Context) ([]byte, error) {
	if script := l.Script(); script != nil {
		return script, nil
	}

	ch := l.sfg.DoChan(l.url, func() (any, error) {
		if script := l.Script(); script != nil {
			return script, nil
		}

		// every waiter shares this fetch; it outlives the first caller
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sdkLoadTimeout)
		defer cancel()
		script, err := l.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.script = script
		l.mu.Unlock()
		return script, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrGatewayLoad, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Script returns the loaded script, or nil before a successful Load.
func (l *SDKLoader) Script() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.script
}

func (l *SDKLoader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayLoad, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayLoad, resp.StatusCode)
	}

	script, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayLoad, err)
	}
	if !bytes.Contains(script, []byte(sdkGlobal)) {
		return nil, fmt.Errorf("%w: script loaded but %s is not defined", ErrGatewayLoad, sdkGlobal)
	}
	return script, nil
}
