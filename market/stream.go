package market

import (
	"context"
	"errors"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

// DatasetScanner streams the data array of a dataset page without loading
// the whole response.
type DatasetScanner struct {
	iter    *jsoniter.Iterator
	closer  io.Closer
	inData  bool
	done    bool
	lastErr error
}

// Next decodes the next dataset into dst. Returns false on end of stream or
// on error. After false, Err should be checked.
func (s *DatasetScanner) Next(dst *Dataset) bool {
	if s.done {
		return false
	}
	// Seek to "data": [
	if !s.inData {
		for {
			field := s.iter.ReadObject()
			if s.fail() {
				return false
			}
			if field == "" {
				s.finish()
				return false
			}
			if field != "data" {
				s.iter.Skip()
				continue
			}
			if s.iter.WhatIsNext() != jsoniter.ArrayValue {
				s.lastErr = errors.New("data is not an array")
				s.finish()
				return false
			}
			s.inData = true
			break
		}
	}
	if !s.iter.ReadArray() {
		s.fail()
		s.finish()
		return false
	}
	*dst = Dataset{}
	s.iter.ReadVal(dst)
	if s.fail() {
		return false
	}
	if err := dst.Validate(); err != nil {
		s.lastErr = err
		s.finish()
		return false
	}
	return true
}

// Err returns the last error encountered by the scanner, if any.
func (s *DatasetScanner) Err() error { return s.lastErr }

// Close closes the underlying response body if still open.
func (s *DatasetScanner) Close() error {
	if s.closer != nil {
		err := s.closer.Close()
		s.closer = nil
		return err
	}
	return nil
}

func (s *DatasetScanner) fail() bool {
	if s.iter.Error != nil && !errors.Is(s.iter.Error, io.EOF) {
		s.lastErr = s.iter.Error
		s.finish()
		return true
	}
	return false
}

func (s *DatasetScanner) finish() {
	s.done = true
	_ = s.Close()
}

// StreamDatasets lists datasets and returns a scanner over the response.
// The caller must Close the scanner when finished.
func (c *Client) StreamDatasets(ctx context.Context, o ListOptions, opts ...CallOption) (*DatasetScanner, error) {
	res, err := c.doRequest(ctx, "stream datasets", http.MethodGet, "/datasets"+o.query(), nil, opts...)
	if err != nil {
		return nil, err
	}
	return &DatasetScanner{
		iter:   jsoniter.Parse(json, res.Body, 4096),
		closer: res.Body,
	}, nil
}
