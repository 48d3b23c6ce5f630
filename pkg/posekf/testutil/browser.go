package testutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/thesyncim/posekf/pkg/posekf"
)

// ErrNoPage is returned by PoseBrowser methods called before Open.
var ErrNoPage = errors.New("testutil: no pose client page open")

// BrowserConfig controls how Chrome is launched for pose client tests.
type BrowserConfig struct {
	// Headless hides the browser window. Default true.
	Headless bool

	// Timeout bounds every page operation. Default 30s.
	Timeout time.Duration

	// Bin is an explicit Chrome binary. Empty lets Rod find or download one.
	Bin string
}

// DefaultBrowserConfig returns the launch settings used by the e2e suite.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// PoseBrowser drives the pose server's HTML client (window.poseClient) in
// headless Chrome.
type PoseBrowser struct {
	cfg     BrowserConfig
	browser *rod.Browser
	page    *rod.Page
}

// NewPoseBrowser starts Chrome. The sandbox is disabled so it runs inside
// containers, and mDNS host obfuscation is off so a local Pion peer can pair
// with the page's host candidates.
func NewPoseBrowser(cfg BrowserConfig) (*PoseBrowser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBrowserConfig().Timeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-features", "WebRtcHideLocalIpsWithMdns")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return &PoseBrowser{cfg: cfg, browser: browser}, nil
}

// Open loads the client page served at url in a fresh tab.
func (b *PoseBrowser) Open(url string) error {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("open tab: %w", err)
	}
	if err := page.Timeout(b.cfg.Timeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.Timeout(b.cfg.Timeout).WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	b.page = page
	return nil
}

// Page returns the open client page, or nil.
func (b *PoseBrowser) Page() *rod.Page {
	return b.page
}

// Eval runs a JavaScript function on the page and returns its JSON value.
// Returned promises are awaited.
func (b *PoseBrowser) Eval(js string) (interface{}, error) {
	if b.page == nil {
		return nil, ErrNoPage
	}
	res, err := b.page.Timeout(b.cfg.Timeout).Eval(js)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	return res.Value.Val(), nil
}

// Connect negotiates the page's peer connection with the server and waits
// for the pose data channel to open.
func (b *PoseBrowser) Connect() error {
	v, err := b.Eval(`() => window.poseClient.connect()`)
	if err != nil {
		return err
	}
	if ok, _ := v.(bool); !ok {
		return fmt.Errorf("poseClient.connect returned %v", v)
	}
	return nil
}

// SendFrames sends landmark frames over the data channel and decodes the
// array of skeleton replies into out.
func (b *PoseBrowser) SendFrames(frames [][]*posekf.Landmark, out interface{}) error {
	payload, err := json.Marshal(frames)
	if err != nil {
		return err
	}
	v, err := b.Eval(fmt.Sprintf(`() => window.poseClient.send(%s).then((r) => JSON.stringify(r))`, payload))
	if err != nil {
		return err
	}
	raw, ok := v.(string)
	if !ok {
		return fmt.Errorf("poseClient.send returned %T", v)
	}
	return json.Unmarshal([]byte(raw), out)
}

// State reports the page's RTCPeerConnection state.
func (b *PoseBrowser) State() (string, error) {
	v, err := b.Eval(`() => window.poseClient.state()`)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// Disconnect closes the page's peer connection and leaves Chrome running.
func (b *PoseBrowser) Disconnect() error {
	_, err := b.Eval(`() => { window.poseClient.close(); return true; }`)
	return err
}

// WaitState polls until the peer connection reaches want or the timeout
// passes.
func (b *PoseBrowser) WaitState(want string) error {
	deadline := time.Now().Add(b.cfg.Timeout)
	for {
		got, err := b.State()
		if err != nil {
			return err
		}
		if got == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("peer connection %q, want %q after %v", got, want, b.cfg.Timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Close shuts Chrome down. Callers defer it so no browser outlives a test.
func (b *PoseBrowser) Close() error {
	if b.browser == nil {
		return nil
	}
	return b.browser.Close()
}
