// Unit tests for the buffer pool
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"sync"
	"testing"
)

func TestByteBuffer(t *testing.T) {
	b := GetByteBuffer()
	defer PutByteBuffer(b)

	b.WriteString("G1 F900")
	b.WriteByte(' ')
	b.Write([]byte("; x\n"))

	if got := string(b.Bytes()); got != "G1 F900 ; x\n" {
		t.Errorf("Bytes() = %q", got)
	}
	if b.Len() != 12 {
		t.Errorf("Len() = %d", b.Len())
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len() after Reset = %d", b.Len())
	}
}

func TestByteBufferGrow(t *testing.T) {
	b := &ByteBuffer{}
	b.WriteString("abc")
	b.Grow(1000)
	if b.Cap()-b.Len() < 1000 {
		t.Errorf("Grow(1000) left only %d spare bytes", b.Cap()-b.Len())
	}
	if string(b.Bytes()) != "abc" {
		t.Errorf("Grow lost contents: %q", b.Bytes())
	}
}

func TestGetByteBufferIsEmpty(t *testing.T) {
	b := GetByteBuffer()
	b.WriteString("leftover")
	PutByteBuffer(b)

	if b2 := GetByteBuffer(); b2.Len() != 0 {
		t.Errorf("pooled buffer not reset, Len() = %d", b2.Len())
	}
}

func TestPutOversized(t *testing.T) {
	b := &ByteBuffer{buf: make([]byte, 0, MaxPooledSize+1)}
	PutByteBuffer(b) // must not panic
	PutByteBuffer(nil)
}

func TestByteBufferConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := GetByteBuffer()
				b.WriteString("G1 X1 Y1\n")
				if b.Len() != 9 {
					t.Errorf("unexpected length %d", b.Len())
				}
				PutByteBuffer(b)
			}
		}()
	}
	wg.Wait()
}
