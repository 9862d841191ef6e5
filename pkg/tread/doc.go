// Package tread syncs an authenticated HTML table export into a MongoDB
// collection, one idempotent run at a time.
//
// Quick start:
//
//	s, err := tread.New(ctx, exportURL, sessionToken,
//	    tread.WithMongo("mongodb://localhost:27017"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close(ctx)
//
//	summary, err := s.Sync(ctx)
//	fmt.Println(summary.Upserted, "new records")
//
// Each Sync call fetches every page of the export, types and
// deduplicates the rows, and upserts them keyed by receipt number, truck
// number, and garage entry date. Re-running against an unchanged export
// changes nothing but the etl_loaded_at stamp.
package tread
