package tread_test

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/crimson-sun/tread/pkg/tread"
)

func Example() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<table>
<tr><th>Receipt No</th><th>Truck No</th><th>Garage Entry At</th></tr>
<tr><td>R-100</td><td>T-42</td><td>15/03/2024</td></tr>
</table>`)
	}))
	defer srv.Close()

	ctx := context.Background()
	var preview bytes.Buffer
	s, err := tread.New(ctx, srv.URL, "session-token", tread.WithDryRun(&preview))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close(ctx)

	summary, err := s.Sync(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("fetched=%d written=%d\n", summary.RowsFetched, summary.Upserted)
	// Output:
	// fetched=1 written=1
}
