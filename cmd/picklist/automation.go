package picklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

const (
	downloadPollInterval     = 2 * time.Second
	defaultAutomationTimeout = 3 * time.Minute

	shipstationLoginURL     = "https://ship.shipstation.com/"
	shipstationShipmentsURL = "https://ship.shipstation.com/shipments"
)

var (
	chromedpExecAllocator = chromedp.NewExecAllocator
	chromedpContext       = chromedp.NewContext
	chromedpRunner        = chromedp.Run
)

// AutomationOptions holds configuration for the ShipStation export download.
type AutomationOptions struct {
	Email       string
	Password    string
	DownloadDir string
	Headless    bool
	Timeout     time.Duration
}

// AutomateShipStationExport logs into ShipStation, triggers a shipment CSV
// export and waits for the download to land in the download directory. It
// returns the path of the downloaded file.
func AutomateShipStationExport(parentCtx context.Context, opts AutomationOptions) (string, error) {
	if opts.Email == "" || opts.Password == "" {
		return "", errors.New("shipstation automation requires both email and password")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultAutomationTimeout
	}

	ctx, cancel := context.WithTimeout(parentCtx, timeout)
	defer cancel()

	downloadDir, cleanup, err := prepareDownloadDir(opts.DownloadDir)
	if err != nil {
		return "", err
	}
	defer func() {
		if cleanup != nil {
			cleanup()
		}
	}()
	slog.Info("Prepared ShipStation download directory", "path", downloadDir, "headless", opts.Headless)

	allocCtx, cancelAllocator := chromedpExecAllocator(ctx, buildExecAllocatorOptions(opts)...)
	defer cancelAllocator()

	browserCtx, cancelBrowser := chromedpContext(allocCtx)
	defer cancelBrowser()

	if err := configureDownloadDirectory(browserCtx, downloadDir); err != nil {
		return "", err
	}

	if err := performShipStationLogin(browserCtx, opts); err != nil {
		return "", err
	}

	start := time.Now()
	if err := triggerShipmentExport(browserCtx); err != nil {
		return "", err
	}

	csvPath, err := waitForDownload(browserCtx, downloadDir, start)
	if err != nil {
		return "", err
	}

	slog.Info("ShipStation export completed", "csv_path", csvPath)
	return csvPath, nil
}

func buildExecAllocatorOptions(opts AutomationOptions) []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-default-browser-check", true),
	}
}

func prepareDownloadDir(path string) (string, func(), error) {
	if path != "" {
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", nil, fmt.Errorf("failed to create download directory: %w", err)
		}
		return filepath.Clean(path), nil, nil
	}

	tmpDir, err := os.MkdirTemp("", "pickwick-shipstation-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary download directory: %w", err)
	}

	return tmpDir, func() { _ = os.RemoveAll(tmpDir) }, nil
}

func configureDownloadDirectory(ctx context.Context, downloadDir string) error {
	action := browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
		WithDownloadPath(downloadDir).
		WithEventsEnabled(true)
	slog.Debug("Configuring download directory", "path", downloadDir)
	if err := chromedpRunner(ctx, action); err != nil {
		return fmt.Errorf("failed to configure download directory: %w", err)
	}
	return nil
}

func performShipStationLogin(ctx context.Context, opts AutomationOptions) error {
	slog.Info("Logging in to ShipStation", "email", opts.Email)

	if err := chromedpRunner(ctx, chromedp.Navigate(shipstationLoginURL)); err != nil {
		return fmt.Errorf("failed to open ShipStation login page: %w", err)
	}

	emailSelector, err := waitForSelector(ctx, []string{
		`//input[@name="email"]`,
		`//input[@type="email"]`,
		`//input[@id="email"]`,
	}, "email field")
	if err != nil {
		return err
	}

	if err := chromedpRunner(ctx, chromedp.SendKeys(emailSelector, opts.Email, chromedp.BySearch)); err != nil {
		return fmt.Errorf("failed to enter email: %w", err)
	}

	passwordSelector, err := waitForSelector(ctx, []string{
		`//input[@name="password"]`,
		`//input[@type="password"]`,
	}, "password field")
	if err != nil {
		return err
	}

	if err := chromedpRunner(ctx, chromedp.SendKeys(passwordSelector, opts.Password, chromedp.BySearch)); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	buttonSelector, err := waitForSelector(ctx, []string{
		`//button[@type='submit']`,
		`//button[contains(text(), 'Log In')]`,
		`//input[@type='submit']`,
	}, "log in button")
	if err != nil {
		return err
	}

	slog.Info("Clicking log in button", "selector", buttonSelector)
	if err := chromedpRunner(ctx, chromedp.Click(buttonSelector, chromedp.BySearch)); err != nil {
		return fmt.Errorf("failed to click log in: %w", err)
	}

	_ = chromedpRunner(ctx, chromedp.Sleep(2*time.Second))

	if err := waitForLoginSuccess(ctx); err != nil {
		return err
	}

	slog.Info("ShipStation login completed")
	return nil
}

func waitForLoginSuccess(ctx context.Context) error {
	timeout := 30 * time.Second
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		var currentURL string
		_ = chromedpRunner(ctx, chromedp.Location(&currentURL))

		slog.Debug("Checking login status", "url", currentURL)

		// Off the login/auth pages means the session is established.
		if currentURL != "" && !strings.Contains(currentURL, "login") && !strings.Contains(currentURL, "auth") {
			slog.Info("Successfully logged in to ShipStation", "url", currentURL)
			return nil
		}

		var errorText string
		_ = chromedpRunner(ctx, chromedp.Evaluate(`
			(function() {
				const msg = document.querySelector('.error, .alert-danger, [role="alert"]');
				return msg ? msg.textContent.trim() : '';
			})()
		`, &errorText))
		if errorText != "" {
			return fmt.Errorf("login error: %s", errorText)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("login canceled: %w", ctx.Err())
		case <-ticker.C:
			if time.Now().After(deadline) {
				return errors.New("timeout waiting for ShipStation login")
			}
		}
	}
}

func waitForSelector(ctx context.Context, selectors []string, description string) (string, error) {
	slog.Debug("Waiting for selector", "desc", description, "selectors", strings.Join(selectors, " | "))

	timeout := 10 * time.Second
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		for _, sel := range selectors {
			var exists bool

			if strings.HasPrefix(sel, "//") {
				checkScript := fmt.Sprintf(`!!document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, sel)
				if err := chromedpRunner(ctx, chromedp.Evaluate(checkScript, &exists)); err == nil && exists {
					slog.Debug("Found selector", "desc", description, "selector", sel)
					return sel, nil
				}
			} else {
				checkScript := fmt.Sprintf(`!!document.querySelector(%q)`, sel)
				if err := chromedpRunner(ctx, chromedp.Evaluate(checkScript, &exists)); err == nil && exists {
					slog.Debug("Found selector", "desc", description, "selector", sel)
					return sel, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("selector wait canceled for %s: %w", description, ctx.Err())
		case <-ticker.C:
			if time.Now().After(deadline) {
				var currentURL string
				_ = chromedpRunner(ctx, chromedp.Location(&currentURL))
				slog.Debug("Selector timeout", "desc", description, "url", currentURL)
				return "", fmt.Errorf("timeout waiting for %s", description)
			}
		}
	}
}

func triggerShipmentExport(ctx context.Context) error {
	slog.Info("Navigating to shipments to trigger CSV export")

	if err := chromedpRunner(ctx, chromedp.Navigate(shipstationShipmentsURL)); err != nil {
		return fmt.Errorf("failed to open shipments page: %w", err)
	}

	exportSelector, err := waitForSelector(ctx, []string{
		`//button[contains(text(), 'Export')]`,
		`//button[@data-testid='export-shipments']`,
		`//a[contains(text(), 'Export')]`,
	}, "export button")
	if err != nil {
		return err
	}

	if err := chromedpRunner(ctx, chromedp.Click(exportSelector, chromedp.BySearch)); err != nil {
		return fmt.Errorf("failed to click export: %w", err)
	}

	// Some accounts get a format dialog before the download starts.
	confirmSelector, err := waitForSelector(ctx, []string{
		`//button[contains(text(), 'Download')]`,
		`//button[contains(text(), 'Export CSV')]`,
		`//button[@data-testid='confirm-export']`,
	}, "export confirmation")
	if err == nil {
		if clickErr := chromedpRunner(ctx, chromedp.Click(confirmSelector, chromedp.BySearch)); clickErr != nil {
			// ERR_ABORTED is expected when the click immediately starts a download.
			if !strings.Contains(clickErr.Error(), "ERR_ABORTED") {
				return fmt.Errorf("failed to confirm export: %w", clickErr)
			}
		}
	} else {
		slog.Debug("No export confirmation dialog, assuming download started")
	}

	slog.Info("Export download triggered")
	return nil
}

func waitForDownload(ctx context.Context, downloadDir string, start time.Time) (string, error) {
	ticker := time.NewTicker(downloadPollInterval)
	defer ticker.Stop()

	tries := 0
	for {
		path, err := findDownloadedExport(downloadDir, start)
		if err == nil {
			slog.Info("ShipStation export download completed", "path", path, "waited", time.Since(start))
			return path, nil
		}

		if tries%5 == 0 {
			slog.Info("Waiting for ShipStation export download", "elapsed", time.Since(start))
		}
		tries++

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("timed out waiting for ShipStation export download: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func findDownloadedExport(downloadDir string, startTime time.Time) (string, error) {
	entries, err := os.ReadDir(downloadDir)
	if err != nil {
		return "", fmt.Errorf("failed to read download directory: %w", err)
	}

	for _, entry := range entries {
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".crdownload") {
			continue
		}
		if !strings.Contains(name, "shipstation") && !strings.Contains(name, "shipment") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Debug("Failed to get file info", "name", entry.Name(), "error", err)
			continue
		}
		if info.ModTime().After(startTime) {
			return filepath.Join(downloadDir, entry.Name()), nil
		}
		slog.Debug("Skipping stale export", "name", entry.Name(), "modTime", info.ModTime())
	}

	return "", errors.New("export CSV not found yet")
}
