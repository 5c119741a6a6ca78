package sfc

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const searchURL = "https://apps.sfc.hk/publicregWeb/searchByName"

// Register selectors. The register renders through ExtJS, so the ids are
// generated but stable across sessions.
const (
	selNameInput       = `input[id^="searchtextname-"]`
	selIndividualRadio = `#radiofield-1027-inputEl`
	selSearchButton    = `div.sfcButton`
	selResultsGrid     = `div.x-grid-panel[id^="grid"]`
	selNoResultField   = `div.x-form-display-field`
	selSFOCell         = `td.x-grid-cell-gridcolumn-1040 div.x-grid-cell-inner`
	selAMLOCell        = `td.x-grid-cell-gridcolumn-1041 div.x-grid-cell-inner`
)

// WebChecker drives the SFC public register through a headless browser.
// Each Check launches a fresh browser so one stuck page cannot poison the
// next check.
type WebChecker struct {
	cfg Config
	log *zap.Logger
}

// NewWebChecker builds a checker. A zero Config gets the defaults.
func NewWebChecker(cfg Config, log *zap.Logger) *WebChecker {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebChecker{cfg: cfg, log: log}
}

// Check runs the search-by-name flow for one candidate and parses the
// resulting transcript. Automation failures come back as an unsuccessful
// Outcome with the manual verification URL set; Check never panics.
func (c *WebChecker) Check(ctx context.Context, candidateName string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	transcript, err := c.run(ctx, candidateName)
	if err != nil {
		c.log.Warn("license automation failed",
			zap.String("candidate", candidateName),
			zap.Error(err))
		return Outcome{
			Success:               false,
			CandidateName:         candidateName,
			SFO:                   StatusUnknown,
			AMLO:                  StatusUnknown,
			RawOutput:             transcript,
			Err:                   fmt.Sprintf("Automation failed: %v", err),
			ManualVerificationURL: ManualVerificationURL,
		}
	}
	return ParseTranscript(candidateName, transcript)
}

func (c *WebChecker) run(ctx context.Context, candidateName string) (transcript string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser automation panic: %v", r)
		}
	}()

	var log strings.Builder
	mark := func(format string, args ...any) {
		fmt.Fprintf(&log, format+"\n", args...)
	}

	l := launcher.New().Headless(c.cfg.Headless)
	if c.cfg.BrowserBin != "" {
		l = l.Bin(c.cfg.BrowserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return log.String(), fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return log.String(), fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return log.String(), fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Context(ctx)

	if err := page.Navigate(searchURL); err != nil {
		return log.String(), fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return log.String(), fmt.Errorf("search page did not load: %w", err)
	}
	mark("Navigated to search page")

	input, err := page.Element(selNameInput)
	if err != nil {
		return log.String(), fmt.Errorf("name input not found: %w", err)
	}
	if err := input.Input(candidateName); err != nil {
		return log.String(), fmt.Errorf("failed to type name: %w", err)
	}
	mark("Typed name: %s", candidateName)

	radio, err := page.Element(selIndividualRadio)
	if err != nil {
		return log.String(), fmt.Errorf("individual radio not found: %w", err)
	}
	if err := radio.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return log.String(), fmt.Errorf("failed to select individual: %w", err)
	}
	mark("Selected Individual radio button")

	button, err := page.Element(selSearchButton)
	if err != nil {
		return log.String(), fmt.Errorf("search button not found: %w", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return log.String(), fmt.Errorf("failed to click search: %w", err)
	}
	mark("Clicked search button")

	// Either a results grid or a display field ("no name matched") appears.
	el, err := page.Race().Element(selResultsGrid).Element(selNoResultField).Do()
	if err != nil {
		return log.String(), fmt.Errorf("no search outcome appeared: %w", err)
	}

	isNoResult, err := el.Matches(selNoResultField)
	if err == nil && isNoResult {
		text, terr := el.Text()
		if terr == nil && strings.Contains(strings.ToLower(text), "no name matched") {
			mark("NO LICENSE FOUND")
			return log.String(), nil
		}
	}

	if err := c.readStatusCells(page, mark); err != nil {
		return log.String(), err
	}
	return log.String(), nil
}

func (c *WebChecker) readStatusCells(page *rod.Page, mark func(string, ...any)) error {
	sfo, err := page.Element(selSFOCell)
	if err != nil {
		mark("SFO LICENSE STATUS CELL NOT FOUND")
		mark("NO LICENSE FOUND")
		return nil
	}
	sfoStatus, err := sfo.Text()
	if err != nil {
		return fmt.Errorf("failed to read SFO cell: %w", err)
	}
	sfoStatus = strings.TrimSpace(sfoStatus)
	mark("SFO License Status: %s", sfoStatus)
	switch sfoStatus {
	case "Yes":
		mark("ACTIVE SFO LICENSE CONFIRMED")
	case "No":
		mark("NO ACTIVE SFO LICENSE")
	default:
		mark("UNKNOWN SFO STATUS - '%s'", sfoStatus)
		mark("NO LICENSE FOUND")
		return nil
	}

	amlo, err := page.Element(selAMLOCell)
	if err != nil {
		mark("AMLO LICENSE STATUS CELL NOT FOUND")
		mark("NO LICENSE FOUND")
		return nil
	}
	amloStatus, err := amlo.Text()
	if err != nil {
		return fmt.Errorf("failed to read AMLO cell: %w", err)
	}
	amloStatus = strings.TrimSpace(amloStatus)
	mark("AMLO License Status: %s", amloStatus)
	switch amloStatus {
	case "Yes":
		mark("ACTIVE AMLO LICENSE CONFIRMED")
	case "No":
		mark("NO ACTIVE AMLO LICENSE")
	default:
		mark("UNKNOWN AMLO STATUS - '%s'", amloStatus)
		mark("NO LICENSE FOUND")
	}
	return nil
}
