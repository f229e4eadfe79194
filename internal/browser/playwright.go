package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightDriver adapts the playwright client to the Driver seam.
type playwrightDriver struct {
	pw *playwright.Playwright
}

func NewPlaywrightDriver() Driver {
	return &playwrightDriver{}
}

func (d *playwrightDriver) Launch(opts *Options) (Browser, error) {
	if d.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start playwright: %w", err)
		}
		d.pw = pw
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
		},
	}

	b, err := d.pw.Chromium.Launch(launchOpts)
	if err != nil {
		d.pw.Stop()
		d.pw = nil
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &playwrightBrowser{browser: b}, nil
}

func (d *playwrightDriver) Stop() error {
	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	return err
}

type playwrightBrowser struct {
	browser playwright.Browser
}

func (b *playwrightBrowser) NewContext(opts ContextOptions) (Context, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if len(opts.ExtraHeaders) > 0 {
		ctxOpts.ExtraHttpHeaders = opts.ExtraHeaders
	}
	if opts.Proxy != "" {
		ctxOpts.Proxy = &playwright.Proxy{Server: opts.Proxy}
	}

	ctx, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return &playwrightContext{ctx: ctx}, nil
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

type playwrightContext struct {
	ctx playwright.BrowserContext
}

func (c *playwrightContext) NewPage() (Page, error) {
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) Close() error {
	return c.ctx.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func waitUntilState(waitUntil string) *playwright.WaitUntilState {
	switch waitUntil {
	case "load":
		return playwright.WaitUntilStateLoad
	case "domcontentloaded":
		return playwright.WaitUntilStateDomcontentloaded
	default:
		return playwright.WaitUntilStateNetworkidle
	}
}

func (p *playwrightPage) Goto(url string, timeout time.Duration, waitUntil string) (Response, error) {
	resp, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: waitUntilState(waitUntil),
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &playwrightResponse{resp: resp}, nil
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Evaluate(expression string) (any, error) {
	return p.page.Evaluate(expression)
}

func (p *playwrightPage) MouseMove(x, y float64) error {
	return p.page.Mouse().Move(x, y, playwright.MouseMoveOptions{
		Steps: playwright.Int(10),
	})
}

func (p *playwrightPage) MouseClick(x, y float64) error {
	return p.page.Mouse().Click(x, y)
}

func (p *playwrightPage) SetExtraHTTPHeaders(headers map[string]string) error {
	return p.page.SetExtraHTTPHeaders(headers)
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type playwrightResponse struct {
	resp playwright.Response
}

func (r *playwrightResponse) Ok() bool {
	return r.resp.Ok()
}

func (r *playwrightResponse) Status() int {
	return r.resp.Status()
}

func (r *playwrightResponse) Headers() map[string]string {
	return r.resp.Headers()
}
