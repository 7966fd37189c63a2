package fcm

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yusufsyaifudin/fcmv1/pkg/logger"
	"go.uber.org/multierr"
)

const redacted = "[REDACTED]"

// RoundTripper writes an access log of every outgoing request and its response
// to Log, nothing when Log is nil. The Authorization header is never logged.
type RoundTripper struct {
	Base http.RoundTripper
	Log  logger.Logger
}

var _ http.RoundTripper = (*RoundTripper)(nil)

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	t0 := time.Now()

	var (
		ctx  = req.Context() // request context
		resp *http.Response  // final response
		err  error           // final error
	)

	var reqBody []byte
	if req.Body != nil {
		var reqBodyErr error
		reqBody, reqBodyErr = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if reqBodyErr != nil {
			return nil, fmt.Errorf("error read request body: %w", reqBodyErr)
		}

		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	base := r.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err = base.RoundTrip(req)

	var respBody []byte
	var respHeader http.Header
	if resp != nil {
		respHeader = resp.Header
	}

	if err == nil && resp.Body != nil {
		var respBodyErr error
		respBody, respBodyErr = io.ReadAll(resp.Body)
		if _err := resp.Body.Close(); _err != nil {
			respBodyErr = multierr.Append(respBodyErr, _err)
		}

		if respBodyErr != nil {
			err = fmt.Errorf("error read response body: %w", respBodyErr)
		}

		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}

	errStr := ""
	if err != nil {
		errStr = err.Error()
	}

	log := r.Log
	if log == nil {
		log = logger.Noop{}
	}

	// log outgoing request
	log.Access(ctx, logger.AccessLogData{
		Path: req.URL.String(),
		Request: logger.HTTPData{
			Header:     toSimpleMap(req.Header),
			DataString: string(reqBody),
		},
		Response: logger.HTTPData{
			Header:     toSimpleMap(respHeader),
			DataString: string(respBody),
		},
		Error:       errStr,
		ElapsedTime: time.Since(t0).Milliseconds(),
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

func toSimpleMap(h http.Header) map[string]string {
	out := map[string]string{}
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") {
			out[k] = redacted
			continue
		}

		out[k] = strings.Join(v, " ")
	}

	return out
}
