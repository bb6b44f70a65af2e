// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package crypting_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/big"
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/op/go-logging"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/prim"
)

const randSeed = 0x7ae1c0ffee15bad5

func testParams() crypting.Params {
	params := crypting.DefaultParams()
	params.ModulusBits = 128
	params.MinModulusBits = 64
	return params
}

type result struct {
	sess *crypting.Session
	err  error
}

func handshakePair(t *testing.T, params crypting.Params) (initiator, responder result) {
	t.Helper()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	done := make(chan result, 1)
	go func() {
		sess, err := crypting.Respond(crypting.NewChannel(b, params), params)
		done <- result{sess, err}
	}()

	sess, err := crypting.Initiate(crypting.NewChannel(a, params), params)
	initiator = result{sess, err}
	if err != nil {
		a.Close()
	}
	responder = <-done
	return
}

func TestFrameRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	sizes := []int{0, 1, 2, 3, 4, 15, 16, 17, 255, 256, 1000, 70000}
	payloads := make([][]byte, len(sizes))
	for i, n := range sizes {
		payloads[i] = make([]byte, n)
		rng.Read(payloads[i])
	}

	errs := make(chan error, 1)
	go func() {
		ch := crypting.NewChannel(a, testParams())
		for _, p := range payloads {
			if err := ch.SendFrame(p); err != nil {
				errs <- err
				return
			}
		}
		errs <- nil
	}()

	ch := crypting.NewChannel(b, testParams())
	for i, want := range payloads {
		got, err := ch.ReceiveFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d: payload mismatch", i)
		}
	}
	if err := <-errs; err != nil {
		t.Fatal(err)
	}
}

func TestFrameHeaderIsBigEndian(t *testing.T) {
	var buf bytes.Buffer
	if err := crypting.WriteFrame(&buf, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0, 0, 0, 3, 'a', 'b', 'c'}) {
		t.Errorf("wire = % x", buf.Bytes())
	}
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	for _, size := range []int32{-1, -1 << 31, 101} {
		var buf bytes.Buffer
		binary.Write(&buf, binary.BigEndian, size)
		buf.Write(make([]byte, 200))

		_, err := crypting.ReadFrame(&buf, 100)
		if !errors.Is(err, crypting.ErrBadFrame) || !crypting.IsConnError(err) {
			t.Errorf("size %d: got %v", size, err)
		}
	}
}

func TestReadFrameShortStream(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(10))
	buf.WriteString("abc")

	_, err := crypting.ReadFrame(&buf, 100)
	if !crypting.IsConnError(err) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v", err)
	}

	_, err = crypting.ReadFrame(bytes.NewReader([]byte{0, 0}), 100)
	if !crypting.IsConnError(err) {
		t.Errorf("truncated header: got %v", err)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))
	var buf bytes.Buffer
	ch := crypting.NewChannel(&buf, testParams())

	for i := 0; i < 50; i++ {
		var key prim.Key
		rng.Read(key[:])
		plain := make([]byte, rng.Intn(600))
		rng.Read(plain)

		if err := ch.EncryptAndSend(plain, key); err != nil {
			t.Fatal(err)
		}
		got, err := ch.ReceiveAndDecrypt(key)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, plain) {
			t.Fatalf("iteration %d: mismatch", i)
		}
	}
}

func TestReceiveAndDecryptRejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	ch := crypting.NewChannel(&buf, testParams())
	if err := ch.SendFrame(make([]byte, 20)); err != nil {
		t.Fatal(err)
	}
	_, err := ch.ReceiveAndDecrypt(prim.Key{})
	if !errors.Is(err, crypting.ErrBadDecode) {
		t.Errorf("got %v", err)
	}
	if crypting.IsConnError(err) {
		t.Error("decode failure reported as connection failure")
	}
}

func TestHandshakeAgrees(t *testing.T) {
	for _, safe := range []bool{false, true} {
		params := testParams()
		params.SafeModulus = safe

		init, resp := handshakePair(t, params)
		if init.err != nil || resp.err != nil {
			t.Fatalf("safe=%v: %v / %v", safe, init.err, resp.err)
		}
		if init.sess.Key != resp.sess.Key {
			t.Fatalf("safe=%v: keys differ", safe)
		}
		if init.sess.Keys != resp.sess.Keys {
			t.Fatalf("safe=%v: session keys differ", safe)
		}
		if init.sess.Keys.Cipher == init.sess.Keys.MAC {
			t.Errorf("safe=%v: cipher and MAC keys not separated", safe)
		}
		if init.sess.Modulus.Cmp(resp.sess.Modulus) != 0 || init.sess.Generator.Cmp(resp.sess.Generator) != 0 {
			t.Errorf("safe=%v: group differs between sides", safe)
		}
		if init.sess.Role != crypting.Initiator || resp.sess.Role != crypting.Responder {
			t.Errorf("roles %v / %v", init.sess.Role, resp.sess.Role)
		}

		wantBits := params.ModulusBits
		if safe {
			wantBits++
		}
		if init.sess.Modulus.BitLen() != wantBits {
			t.Errorf("safe=%v: modulus has %d bits", safe, init.sess.Modulus.BitLen())
		}
	}
}

func TestHandshakeLegacyKeys(t *testing.T) {
	params := testParams()
	params.LegacyKeys = true

	init, resp := handshakePair(t, params)
	if init.err != nil || resp.err != nil {
		t.Fatalf("%v / %v", init.err, resp.err)
	}
	if init.sess.Keys.Cipher != init.sess.Key || init.sess.Keys.MAC != init.sess.Key {
		t.Error("legacy mode did not reuse K")
	}
	if resp.sess.Keys != init.sess.Keys {
		t.Error("keys differ")
	}

	init.sess.Clear()
	if init.sess.Key != prim.ZeroKey() {
		t.Error("Clear left key material")
	}
}

func TestHandshakeFreshKeys(t *testing.T) {
	first, _ := handshakePair(t, testParams())
	second, _ := handshakePair(t, testParams())
	if first.err != nil || second.err != nil {
		t.Fatalf("%v / %v", first.err, second.err)
	}
	if first.sess.Key == second.sess.Key {
		t.Error("two sessions derived the same key")
	}
}

// fakeInitiator sends p and g, reads the responder's public value, then sends pub.
func fakeInitiator(conn net.Conn, p, g, pub *big.Int) {
	ch := crypting.NewChannel(conn, testParams())
	ch.SendFrame(prim.IntBinary(p))
	ch.SendFrame(prim.IntBinary(g))
	if pub == nil {
		return
	}
	if _, err := ch.ReceiveFrame(); err != nil {
		return
	}
	ch.SendFrame(prim.IntBinary(pub))
}

func respondTo(t *testing.T, p, g, pub *big.Int) error {
	t.Helper()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go fakeInitiator(a, p, g, pub)
	_, err := crypting.Respond(crypting.NewChannel(b, testParams()), testParams())
	return err
}

// prime128 returns 2^128-159, the largest 128-bit prime.
func prime128() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 128)
	return p.Sub(p, big.NewInt(159))
}

func TestRespondRejectsBadGroup(t *testing.T) {
	// Prime, but far below MinModulusBits.
	short := big.NewInt(1000003)
	if err := respondTo(t, short, big.NewInt(2), nil); !errors.Is(err, crypting.ErrBadHandshake) {
		t.Errorf("short modulus: got %v", err)
	}

	p := prime128()
	if err := respondTo(t, p, big.NewInt(1), nil); !errors.Is(err, crypting.ErrBadHandshake) {
		t.Errorf("g=1: got %v", err)
	}

	// Rejected on length alone, so it need not be prime.
	huge := new(big.Int).Lsh(big.NewInt(1), 200000)
	huge.Add(huge, big.NewInt(1))
	done := make(chan error, 1)
	go func() { done <- respondTo(t, huge, big.NewInt(2), nil) }()
	select {
	case err := <-done:
		if !errors.Is(err, crypting.ErrBadHandshake) {
			t.Errorf("huge modulus: got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("responder computed with a huge modulus")
	}
}

func TestLongestSafeModulusAccepted(t *testing.T) {
	// One bit over MaxModulusBits, as a safe modulus for the largest request would be.
	p := new(big.Int).Lsh(big.NewInt(1), crypting.MaxModulusBits)
	p.Add(p, big.NewInt(1))
	if err := prim.ValidateGroup(p, big.NewInt(2), testParams().MinModulusBits, crypting.MaxModulusBits+1); err != nil {
		t.Errorf("got %v", err)
	}
}

func TestRespondValidatesParams(t *testing.T) {
	params := testParams()
	params.MaxFrameLen = 0
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1, 7})
	if _, err := crypting.Respond(crypting.NewChannel(&buf, params), params); err != crypting.ErrBadParams {
		t.Errorf("got %v", err)
	}
	if buf.Len() != 5 {
		t.Error("frame consumed despite bad params")
	}
}

func TestHandshakeLogsFormatted(t *testing.T) {
	records := logging.InitForTesting(logging.DEBUG)
	defer logging.InitForTesting(logging.WARNING)

	a, b := handshakePair(t, testParams())
	if a.err != nil || b.err != nil {
		t.Fatalf("%v / %v", a.err, b.err)
	}

	var sawKey bool
	for n := records.Head(); n != nil; n = n.Next() {
		msg := n.Record.Message()
		if strings.Contains(msg, "%") {
			t.Errorf("unformatted log line %q", msg)
		}
		if strings.Contains(msg, a.sess.Key.Hex()) {
			sawKey = true
		}
	}
	if !sawKey {
		t.Error("derived key not logged at DEBUG")
	}
}

func TestRespondRejectsPublicOutOfRange(t *testing.T) {
	p := prime128()
	for _, pub := range []*big.Int{big.NewInt(0), new(big.Int).Set(p), big.NewInt(-5)} {
		if err := respondTo(t, p, big.NewInt(3), pub); !errors.Is(err, crypting.ErrBadHandshake) {
			t.Errorf("public %v: got %v", pub, err)
		}
	}
}

func TestRespondRejectsEmptyInteger(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go crypting.NewChannel(a, testParams()).SendFrame(nil)
	_, err := crypting.Respond(crypting.NewChannel(b, testParams()), testParams())
	if !errors.Is(err, crypting.ErrBadDecode) {
		t.Errorf("got %v", err)
	}
}

func TestHandshakeAbortsWhenClosed(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()

	done := make(chan error, 1)
	go func() {
		_, err := crypting.Respond(crypting.NewChannel(b, testParams()), testParams())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close()

	select {
	case err := <-done:
		if !crypting.IsConnError(err) {
			t.Errorf("got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("blocked handshake did not notice close")
	}
}

func TestInitiateValidatesParams(t *testing.T) {
	params := testParams()
	params.ModulusBits = 8
	var buf bytes.Buffer
	if _, err := crypting.Initiate(crypting.NewChannel(&buf, params), params); err != crypting.ErrBadParams {
		t.Errorf("got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("bytes written despite bad params")
	}
}

func TestConnErrorIsNetError(t *testing.T) {
	var err error = &crypting.ConnError{Op: "read", Err: io.EOF}
	var ne net.Error
	if !errors.As(err, &ne) || ne.Timeout() {
		t.Errorf("ConnError as net.Error: %v", ne)
	}
	if !errors.Is(err, io.EOF) {
		t.Error("ConnError does not unwrap")
	}
}
