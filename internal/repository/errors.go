package repository

import (
	"errors"
	"fmt"
)

// PermissionDeniedCode is the Postgres SQLSTATE raised when a row level
// security policy rejects a statement.
const PermissionDeniedCode = "42501"

// RLSFixSQL is attached to every PermissionDeniedError raised by the backends.
const RLSFixSQL = `
-- Run this SQL in Supabase SQL Editor to enable public access:

-- First, create the courses table if it doesn't exist:
CREATE TABLE IF NOT EXISTS public.courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT DEFAULT '',
  image_url TEXT DEFAULT '',
  content_description TEXT DEFAULT '',
  files JSONB DEFAULT '[]',
  progress INTEGER DEFAULT 0,
  tag TEXT DEFAULT 'AIS+'
);

-- Enable RLS
ALTER TABLE public.courses ENABLE ROW LEVEL SECURITY;

-- Drop existing policies if any
DROP POLICY IF EXISTS "Public read access" ON public.courses;
DROP POLICY IF EXISTS "Public insert access" ON public.courses;
DROP POLICY IF EXISTS "Public update access" ON public.courses;
DROP POLICY IF EXISTS "Public delete access" ON public.courses;

-- Allow anyone to read courses
CREATE POLICY "Public read access" ON public.courses
  FOR SELECT USING (true);

-- Allow anyone to insert courses (for demo purposes)
CREATE POLICY "Public insert access" ON public.courses
  FOR INSERT WITH CHECK (true);

-- Allow anyone to update courses (for demo purposes)
CREATE POLICY "Public update access" ON public.courses
  FOR UPDATE USING (true);

-- Allow anyone to delete courses (for demo purposes)
CREATE POLICY "Public delete access" ON public.courses
  FOR DELETE USING (true);
`

// ErrCourseNotFound is wrapped into a RequestFailedError when an id matches no row.
var ErrCourseNotFound = errors.New("course not found")

// PermissionDeniedError means the store's access policy rejected the operation.
// Script is the corrective setup text shown to the user; it may be empty.
type PermissionDeniedError struct {
	Op      string
	Message string
	Script  string
}

func (e *PermissionDeniedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: permission denied", e.Op)
	}
	return fmt.Sprintf("%s: permission denied: %s", e.Op, e.Message)
}

// RequestFailedError covers every other failure: transport, malformed
// response, not found.
type RequestFailedError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: request failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

// AsPermissionDenied unwraps err into a PermissionDeniedError if it is one.
func AsPermissionDenied(err error) (*PermissionDeniedError, bool) {
	var pd *PermissionDeniedError
	if errors.As(err, &pd) {
		return pd, true
	}
	return nil, false
}

// IsNotFound reports whether err was caused by a missing course.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCourseNotFound)
}

func denied(op, msg string) error {
	return &PermissionDeniedError{Op: op, Message: msg, Script: RLSFixSQL}
}

func failed(op string, status int, err error) error {
	return &RequestFailedError{Op: op, StatusCode: status, Err: err}
}
