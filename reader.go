// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2023  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import (
	"bytes"
	"fmt"
)

// EncryptionStatus describes how a Reader's open attempt went.
type EncryptionStatus int

const (
	// NotEncrypted means the document has no /Encrypt entry.
	NotEncrypted EncryptionStatus = iota
	// EncryptedUnlocked means the document is encrypted and a correct
	// password (possibly the empty string) or seed has already been
	// applied.
	EncryptedUnlocked
	// EncryptedLocked means the document is encrypted and no correct
	// password or seed has been supplied yet.
	EncryptedLocked
)

// EncryptionType distinguishes the standard password-based security
// handler from the certificate-based /Adobe.PubSec handler.
type EncryptionType int

const (
	EncryptionNone EncryptionType = iota
	EncryptionStandard
	EncryptionPubSec
)

// Reader resolves the indirect objects of one PDF file. It implements
// Getter and is the entry point the document and content-stream layers
// build on.
type Reader struct {
	buf     []byte
	xref    *xrefTable
	trailer Dict
	version Version

	opts *ReaderOptions

	encType    EncryptionType
	std        *docCrypt
	pubSec     *pubSecCrypt
	pubSecCiph cipherType

	objStms map[uint32]*objStm
}

// NewReader parses data's cross-reference information and, if the document
// is encrypted, attempts the password or seed configured in opt (a nil opt
// behaves like a zero-valued ReaderOptions: empty password, default caps).
// It does not fail merely because the document remains locked; callers
// that need decrypted content should check EncryptionStatus and call
// TryPassword or SupplySeed as needed before reading streams or strings.
func NewReader(data []byte, opt *ReaderOptions) (*Reader, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}

	ver, err := readHeaderVersion(data)
	if err != nil {
		return nil, err
	}

	xr, trailer, err := loadXRef(data)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		buf:     data,
		xref:    xr,
		trailer: trailer,
		version: ver,
		opts:    opt,
		objStms: make(map[uint32]*objStm),
	}

	if cv, err := GetName(r, r.catalogVersionLookup()); err == nil && cv != "" {
		if parsed, ok := parseNameVersion(cv); ok && parsed > r.version {
			r.version = parsed
		}
	}

	if enc, _ := trailer["Encrypt"].(Dict); enc != nil {
		if err := r.setupEncryption(enc); err != nil {
			return nil, err
		}
	} else if ref, ok := trailer["Encrypt"].(Reference); ok {
		obj, err := r.getByNumber(ref.Number(), false)
		if err != nil {
			return nil, err
		}
		if enc, ok := obj.(Dict); ok {
			if err := r.setupEncryption(enc); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

func (r *Reader) catalogVersionLookup() Object {
	root, ok := r.trailer["Root"]
	if !ok {
		return nil
	}
	cat, err := GetDict(r, root)
	if err != nil || cat == nil {
		return nil
	}
	return cat["Version"]
}

func parseNameVersion(n Name) (Version, bool) {
	var major, minor int
	if _, err := fmt.Sscanf(string(n), "%d.%d", &major, &minor); err != nil {
		return 0, false
	}
	v, err := ParseVersion(major, minor)
	if err != nil {
		return 0, false
	}
	return v, true
}

func readHeaderVersion(data []byte) (Version, error) {
	idx := bytes.Index(data, []byte("%PDF-"))
	if idx < 0 || idx > 1024 {
		return 0, &MalformedFileError{Err: fmt.Errorf("missing %%PDF- header")}
	}
	var major, minor int
	if _, err := fmt.Sscanf(string(data[idx:min64(int64(idx+16), int64(len(data)))]), "%%PDF-%d.%d", &major, &minor); err != nil {
		return 0, &MalformedFileError{Err: fmt.Errorf("malformed %%PDF- header: %w", err)}
	}
	return ParseVersion(major, minor)
}

func firstID(trailer Dict) []byte {
	arr, _ := trailer["ID"].(Array)
	if len(arr) == 0 {
		return nil
	}
	s, _ := arr[0].(String)
	return []byte(s)
}

func (r *Reader) setupEncryption(enc Dict) error {
	filter, _ := enc["Filter"].(Name)
	switch filter {
	case "Adobe.PubSec":
		r.encType = EncryptionPubSec
		pc, err := newPubSecCrypt(enc)
		if err != nil {
			return err
		}
		r.pubSec = pc
		r.pubSecCiph = pubSecCipher(enc)
		if seed := r.opts.seed(); len(seed) == 32 {
			_ = pc.SupplySeed(seed)
		}
		return nil
	default:
		r.encType = EncryptionStandard
		dc, err := parseEncryptDict(enc, firstID(r.trailer), r.opts.password())
		if err != nil {
			return err
		}
		r.std = dc
		// Per Algorithm 2, the empty password is tried first; this lets a
		// document that only restricts permissions (no real user password)
		// come up already unlocked, matching GetKey's own ordering.
		_, _ = dc.sec.GetKey(false)
		return nil
	}
}

// EncryptionStatus reports whether the document is encrypted and, if so,
// whether it has already been unlocked.
func (r *Reader) EncryptionStatus() EncryptionStatus {
	switch {
	case r.encType == EncryptionNone:
		return NotEncrypted
	case r.encType == EncryptionPubSec:
		if r.pubSec != nil && r.pubSec.key != nil {
			return EncryptedUnlocked
		}
		return EncryptedLocked
	default:
		if r.std != nil && r.std.sec != nil && r.std.sec.key != nil {
			return EncryptedUnlocked
		}
		return EncryptedLocked
	}
}

// Type reports which security handler, if any, protects the document.
func (r *Reader) Type() EncryptionType { return r.encType }

// Version returns the document's effective PDF version (the later of the
// file header and the catalog's /Version override).
func (r *Reader) Version() Version { return r.version }

// Trailer returns the merged trailer dictionary.
func (r *Reader) Trailer() Dict { return r.trailer }

// Catalog resolves and returns the document catalog (/Root).
func (r *Reader) Catalog() (Dict, error) {
	return GetDictTyped(r, r.trailer["Root"], "Catalog")
}

// TryPassword attempts to unlock a standard-security-handler document with
// pwd, returning whether it succeeded as either the owner or the user
// password. It is a no-op returning false for unencrypted or
// certificate-encrypted documents.
func (r *Reader) TryPassword(pwd string) bool {
	if r.std == nil || r.std.sec == nil {
		return false
	}
	sec := r.std.sec

	if sec.R < 6 {
		padded, err := padPasswd(pwd)
		if err != nil {
			return false
		}
		if sec.authenticateOwner(padded) == nil {
			return true
		}
		return sec.authenticateUser(padded) == nil
	}

	prepared, err := utf8Passwd(pwd)
	if err != nil {
		return false
	}
	if sec.authenticateOwner6(prepared) == nil {
		return true
	}
	return sec.authenticateUser6(prepared) == nil
}

// SupplySeed unlocks a certificate-encrypted (/Adobe.PubSec) document with
// the host-decrypted RSA seed for one of its recipients.
func (r *Reader) SupplySeed(seed []byte) error {
	if r.pubSec == nil {
		return &UnsupportedError{Feature: "document is not /Adobe.PubSec encrypted"}
	}
	return r.pubSec.SupplySeed(seed)
}

// CertRecipients returns the parsed PKCS#7 recipient list of a
// certificate-encrypted document, so a host application can match one
// against its available private keys before calling SupplySeed.
func (r *Reader) CertRecipients() []RecipientInfo {
	if r.pubSec == nil {
		return nil
	}
	return r.pubSec.Recipients()
}

// Get implements Getter: it resolves one object number/generation pair,
// either directly from the file or, when canObjStm allows it, from an
// object stream, and attaches the per-object decrypt key to any Stream or
// String it returns.
func (r *Reader) Get(ref Reference, canObjStm bool) (Object, error) {
	e, ok := r.xref.entries[ref.Number()]
	if !ok || e.kind == xrefFree {
		return nil, nil
	}

	switch e.kind {
	case xrefInFile:
		return r.getInFile(ref, e.offset)
	case xrefInStream:
		if !canObjStm {
			return nil, &MalformedFileError{Err: fmt.Errorf("object %d may not live in an object stream here", ref.Number())}
		}
		return r.getInStream(ref, e)
	default:
		return nil, nil
	}
}

// getByNumber looks up an object ignoring its declared generation, for the
// bootstrapping paths (reading the /Encrypt dict, loading an object
// stream) where the caller does not have a full Reference in hand yet.
func (r *Reader) getByNumber(num uint32, canObjStm bool) (Object, error) {
	e, ok := r.xref.entries[num]
	if !ok {
		return nil, &MalformedFileError{Err: fmt.Errorf("object %d not found", num)}
	}
	return r.Get(NewReference(num, e.gen), canObjStm)
}

func (r *Reader) getInFile(ref Reference, offset int64) (Object, error) {
	p := NewParser(r.buf, offset)
	p.SetResolver(func(inner Reference) (Object, error) { return Resolve(r, inner) })
	num, gen, obj, _, err := p.ParseIndirectObject(offset)
	if err != nil {
		return nil, err
	}
	if num != ref.Number() {
		return nil, &MalformedFileError{Err: fmt.Errorf("xref points at object %d but found %d", ref.Number(), num)}
	}
	return r.attachDecrypt(NewReference(num, gen), obj)
}

func (r *Reader) getInStream(ref Reference, e xrefEntry) (Object, error) {
	os, ok := r.objStms[e.streamNum]
	if !ok {
		loaded, err := loadObjStm(r, e.streamNum)
		if err != nil {
			return nil, err
		}
		r.objStms[e.streamNum] = loaded
		os = loaded
	}
	obj, ok := os.objectByIndex(e.indexInStream)
	if !ok {
		return nil, nil
	}
	// Objects inside an object stream are never streams themselves and are
	// never separately encrypted; the stream's own decryption already
	// covers them (ISO 32000-1:2008 §7.5.7).
	return obj, nil
}

// attachDecrypt wires a freshly-parsed Stream or String to the per-object
// decrypt key it needs, if the document is encrypted and a key is
// currently available.
func (r *Reader) attachDecrypt(ref Reference, obj Object) (Object, error) {
	switch x := obj.(type) {
	case *Stream:
		key, err := r.keyFor(ref, true)
		if err != nil {
			return nil, err
		}
		x.crypt = key
		return x, nil
	case String:
		key, err := r.keyFor(ref, false)
		if err != nil {
			return nil, err
		}
		if key == nil || key.cipher == cipherUnknown {
			return x, nil
		}
		plain, err := key.decryptBuf([]byte(x))
		if err != nil {
			return nil, err
		}
		return String(plain), nil
	case Dict:
		for k, v := range x {
			dec, err := r.attachDecrypt(ref, v)
			if err != nil {
				return nil, err
			}
			x[k] = dec
		}
		return x, nil
	case Array:
		for i, v := range x {
			dec, err := r.attachDecrypt(ref, v)
			if err != nil {
				return nil, err
			}
			x[i] = dec
		}
		return x, nil
	default:
		return obj, nil
	}
}

func (r *Reader) keyFor(ref Reference, isStream bool) (*objectKey, error) {
	switch r.encType {
	case EncryptionStandard:
		if r.std == nil {
			return nil, nil
		}
		return r.std.KeyFor(ref, isStream)
	case EncryptionPubSec:
		if r.pubSec == nil || r.pubSec.key == nil {
			return nil, nil
		}
		return r.pubSec.KeyFor(ref, r.pubSecCiph)
	default:
		return nil, nil
	}
}
