// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gogama/httpwire/request"
)

// encodeMultipart encodes r.Form as multipart/form-data. Values tagged
// with request.FileMarker become file parts holding the named file's
// content. Fields are written in name order.
func encodeMultipart(r *request.Request) (*bytes.Buffer, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	names := make([]string, 0, len(r.Form))
	for name := range r.Form {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range r.Form[name] {
			path, isFile := strings.CutPrefix(v, request.FileMarker)
			if !isFile {
				if err := w.WriteField(name, v); err != nil {
					return nil, "", err
				}
				continue
			}
			if err := writeFilePart(w, name, path); err != nil {
				return nil, "", &request.RequestConstructionError{Op: "encode multipart", Path: path, Err: err}
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &b, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := w.CreateFormFile(name, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
