package browser

import "github.com/playwright-community/playwright-go"

// Control is one matched UI control on a surface.
type Control interface {
	// Click clicks the control.
	Click() error

	// Fill assigns a value directly. Editable-region controls may reject
	// this; callers fall back to keyboard emulation.
	Fill(value string) error

	// SetFiles assigns file paths to a file-input control.
	SetFiles(paths []string) error

	// Text returns the control's visible text content.
	Text() (string, error)

	// Attr returns the named attribute, or "" when absent.
	Attr(name string) (string, error)
}

// ControlSurface is anything that can be probed for controls: the page's
// main frame or an embedded frame.
type ControlSurface interface {
	// Find returns the first control matching selector. A nil Control with
	// nil error means no match; a non-nil error means the probe itself
	// failed.
	Find(selector string) (Control, error)

	// FindAll returns every control matching selector.
	FindAll(selector string) ([]Control, error)

	// URL identifies the surface for logging.
	URL() string
}

// Keyboard emulates keystrokes on the active page.
type Keyboard interface {
	Press(key string) error
	Type(text string) error
}

// pageSurface adapts a playwright page to ControlSurface.
type pageSurface struct {
	page playwright.Page
}

func (s pageSurface) Find(selector string) (Control, error) {
	el, err := s.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}
	return elementControl{el: el}, nil
}

func (s pageSurface) FindAll(selector string) ([]Control, error) {
	els, err := s.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	controls := make([]Control, 0, len(els))
	for _, el := range els {
		controls = append(controls, elementControl{el: el})
	}
	return controls, nil
}

func (s pageSurface) URL() string { return s.page.URL() }

// frameSurface adapts an embedded frame to ControlSurface.
type frameSurface struct {
	frame playwright.Frame
}

func (s frameSurface) Find(selector string) (Control, error) {
	el, err := s.frame.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}
	return elementControl{el: el}, nil
}

func (s frameSurface) FindAll(selector string) ([]Control, error) {
	els, err := s.frame.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	controls := make([]Control, 0, len(els))
	for _, el := range els {
		controls = append(controls, elementControl{el: el})
	}
	return controls, nil
}

func (s frameSurface) URL() string { return s.frame.URL() }

// elementControl adapts a playwright element handle to Control.
type elementControl struct {
	el playwright.ElementHandle
}

func (c elementControl) Click() error {
	return c.el.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(1000),
	})
}

func (c elementControl) Fill(value string) error {
	return c.el.Fill(value)
}

func (c elementControl) SetFiles(paths []string) error {
	return c.el.SetInputFiles(paths)
}

func (c elementControl) Text() (string, error) {
	return c.el.TextContent()
}

func (c elementControl) Attr(name string) (string, error) {
	value, err := c.el.GetAttribute(name)
	if err != nil {
		return "", err
	}
	return value, nil
}

// pwKeyboard adapts the playwright keyboard.
type pwKeyboard struct {
	page playwright.Page
}

func (k pwKeyboard) Press(key string) error { return k.page.Keyboard().Press(key) }
func (k pwKeyboard) Type(text string) error { return k.page.Keyboard().Type(text) }
