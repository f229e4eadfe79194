package botdefense

import (
	"time"
)

// Page is the subset of browser page operations the defense layer drives.
type Page interface {
	Evaluate(expression string) (any, error)
	MouseMove(x, y float64) error
	MouseClick(x, y float64) error
	SetExtraHTTPHeaders(headers map[string]string) error
}

// DrivePage performs a short burst of human-like interaction on a live page:
// a handful of randomized pointer movements, one scroll partway down the
// document and one click. Every sub-step is independently best-effort: a
// failed mouse move must not abort the navigation it decorates.
func (d *Defense) DrivePage(page Page, url string) {
	moves := 3 + d.rnd.Intn(5)
	for i := 0; i < moves; i++ {
		x := 100 + d.rnd.Float64()*800
		y := 100 + d.rnd.Float64()*600
		d.attempt("mouse move", func() error {
			return page.MouseMove(x, y)
		})
		time.Sleep(time.Duration(50+d.rnd.Intn(200)) * time.Millisecond)
	}

	d.attempt("scroll", func() error {
		_, err := page.Evaluate(`window.scrollTo(0, document.body.scrollHeight * 0.3)`)
		return err
	})

	d.attempt("click", func() error {
		return page.MouseClick(200+d.rnd.Float64()*400, 200+d.rnd.Float64()*300)
	})

	d.logger.Debug("drove page interaction", "url", url, "moves", moves)
}

// SuppressFingerprint applies stealth headers and overrides the automation
// detection flag on the page. Both sub-steps are best-effort.
func (d *Defense) SuppressFingerprint(page Page) {
	d.attempt("set stealth headers", func() error {
		return page.SetExtraHTTPHeaders(map[string]string{
			"Sec-Fetch-Dest": "document",
			"Sec-Fetch-Mode": "navigate",
			"Sec-Fetch-Site": "none",
			"Sec-Fetch-User": "?1",
		})
	})

	d.attempt("override webdriver flag", func() error {
		_, err := page.Evaluate(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`)
		return err
	})
}

// attempt runs one anti-detection sub-step, converting any failure into a
// logged no-op so the remaining sub-steps still run.
func (d *Defense) attempt(step string, fn func() error) {
	if err := fn(); err != nil {
		d.logger.Debug("anti-detection step failed", "step", step, "error", err)
	}
}
