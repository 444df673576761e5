//go:build !linux && !darwin

package netutil

import (
	"errors"
	"syscall"
)

func SetNonblock(rc syscall.RawConn, nonblock bool) error { return errors.ErrUnsupported }

func SetNoDelay(rc syscall.RawConn, enable bool) error { return errors.ErrUnsupported }

func Write(rc syscall.RawConn, p []byte) (int, error) { return 0, errors.ErrUnsupported }

func Peek(rc syscall.RawConn) (bool, error) { return false, errors.ErrUnsupported }

func Drain(rc syscall.RawConn, p []byte) (int, error) { return 0, errors.ErrUnsupported }
