// Package relay drives one run: fetch the gallery once, then download and
// send each image in page order.
//
// Items are processed strictly one after another. A failed download or send
// is reported and counted, and the run moves on to the next item; only a
// failure to fetch or parse the page aborts the run.
//
//	r := relay.NewFromConfig(cfg, ui.NewReporter(os.Stdout), log)
//	summary, err := r.Run(ctx)
package relay
