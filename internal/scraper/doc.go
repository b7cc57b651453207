// Package scraper fetches the raw marketing export.
//
// Fetching is two steps: a LinkResolver renders the export page and reads
// the href of the download control, then the Downloader retrieves that link
// and writes the body atomically to the raw export file.
//
// Two resolvers are available:
//
//	BrowserResolver  drives headless Chrome with chromedp (default)
//	PageResolver     plain HTTP GET with resty, parsed with goquery
//
// A locator that matches nothing yields an ELEMENT_NOT_FOUND AppError; any
// failed or non-2xx request yields a NETWORK AppError. Nothing is retried.
package scraper
