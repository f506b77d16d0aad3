// Package thetv reads news article galleries from thetv.jp.
//
// A gallery is the first div.newsimage block of an article. Each li entry
// links to a detail page; the full-size image lives under a parallel path:
//
//	/news/detail/1310405/1/  ->  https://thetv.jp/i/nw/1310405/1.jpg
//
// The entry's img alt text becomes the caption.
//
//	client := thetv.NewClient(httpClient, thetv.DefaultPageURL, userAgent, 15*time.Second, log)
//	items, err := client.FetchItems(ctx)
package thetv
