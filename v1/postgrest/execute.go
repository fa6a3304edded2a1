package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Aleph-Alpha/supabase-go/internal/rest"
)

// Response is the successful outcome of a query.
type Response struct {
	// Data is the JSON body: an array of rows, a single object after Single,
	// or null for minimal mutations and HEAD requests.
	Data json.RawMessage

	// Count is set when Count was requested and the server reported a total.
	Count *int64

	Status     int
	StatusText string
}

// Execute sends the request. Remote failures are returned as *Error.
func (b *QueryBuilder) Execute(ctx context.Context) (*Response, error) {
	resp, err := b.send(ctx, "")
	if err != nil {
		return nil, err
	}

	out := &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Count:      parseCount(resp.Header.Get("Content-Range")),
	}

	data := json.RawMessage(resp.Body)
	if len(strings.TrimSpace(string(data))) == 0 {
		data = json.RawMessage("null")
	}

	if b.maybe && !b.singleRow && b.httpMethod() != http.MethodHead {
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("postgrest: decode rows: %w", err)
		}
		switch len(rows) {
		case 0:
			data = json.RawMessage("null")
		case 1:
			data = rows[0]
		default:
			return nil, &Error{
				Status:  http.StatusNotAcceptable,
				Code:    "PGRST116",
				Message: "JSON object requested, multiple (or no) rows returned",
				Details: fmt.Sprintf("Results contain %d rows, application/vnd.pgrst.object+json requires 1 row", len(rows)),
			}
		}
	}

	out.Data = data
	return out, nil
}

// ExecuteTo sends the request and decodes Data into dest.
//
// Example:
//
//	var messages []Message
//	_, err := client.From("messages").
//	    Select("*").
//	    Order("created_at", postgrest.OrderOptions{Descending: true}).
//	    Limit(10).
//	    ExecuteTo(ctx, &messages)
func (b *QueryBuilder) ExecuteTo(ctx context.Context, dest interface{}) (*Response, error) {
	resp, err := b.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if dest != nil {
		if err := json.Unmarshal(resp.Data, dest); err != nil {
			return resp, fmt.Errorf("postgrest: decode result: %w", err)
		}
	}
	return resp, nil
}

// CSV sends the request asking for text/csv and returns the body as is.
func (b *QueryBuilder) CSV(ctx context.Context) (string, error) {
	resp, err := b.send(ctx, "text/csv")
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

func (b *QueryBuilder) send(ctx context.Context, accept string) (*rest.Response, error) {
	if !b.consumed.CompareAndSwap(false, true) {
		return nil, ErrBuilderConsumed
	}
	if b.err != nil {
		return nil, b.err
	}

	if b.operation == "delete" && len(b.filters) == 0 {
		b.client.logWarn(ctx, "deleting without filters affects every row", map[string]interface{}{
			"table": b.table,
		})
	}

	header := http.Header{}
	if accept == "" {
		accept = b.accept
	}
	if accept != "" {
		header.Set("Accept", accept)
	}
	if prefer := b.preferHeader(); prefer != "" {
		header.Set("Prefer", prefer)
	}
	if b.client.schema != "" {
		method := b.httpMethod()
		if method == http.MethodGet || method == http.MethodHead {
			header.Set("Accept-Profile", b.client.schema)
		} else {
			header.Set("Content-Profile", b.client.schema)
		}
	}

	start := time.Now()
	resp, err := b.client.rest.Do(ctx, rest.Request{
		Operation: b.operation,
		Method:    b.httpMethod(),
		Path:      b.path,
		RawQuery:  b.encodeQuery(),
		Header:    header,
		Body:      b.body,
	})

	var size int64
	if resp != nil {
		size = int64(len(resp.Body))
		if !resp.OK() {
			err = parseError(resp.StatusCode, resp.Body)
		}
	}
	b.client.observeOperation(b.operation, b.table, time.Since(start), err, size)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *QueryBuilder) preferHeader() string {
	prefer := append([]string(nil), b.prefer...)
	if b.isMutation() {
		if _, ok := b.getParam("select"); ok {
			prefer = append(prefer, "return=representation")
		} else {
			prefer = append(prefer, "return=minimal")
		}
	}
	if b.count != "" {
		prefer = append(prefer, "count="+string(b.count))
	}
	return strings.Join(prefer, ",")
}

// parseCount reads the total from a Content-Range header such as "0-24/3573"
// or "*/0".
func parseCount(contentRange string) *int64 {
	i := strings.LastIndex(contentRange, "/")
	if i < 0 {
		return nil
	}
	total := contentRange[i+1:]
	if total == "*" {
		return nil
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
