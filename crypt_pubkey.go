package pdf

import (
	"crypto/md5"
	"crypto/sha1"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// asn1Element is one parsed BER/DER tag-length-value element. Unlike
// encoding/asn1, this walker also accepts indefinite-length constructed
// values (0x80 length octet terminated by a 00 00 EOC element), which the
// PKCS#7 blobs embedded in a /Recipients entry occasionally use.
type asn1Element struct {
	class       byte // 0 universal, 1 application, 2 context, 3 private
	constructed bool
	tag         uint32

	value    []byte        // raw content octets (primitive elements)
	children []asn1Element // decoded children (constructed elements)

	headerLen, contentLen int
}

func (e *asn1Element) isUniversal(tag uint32) bool { return e.class == 0 && e.tag == tag }
func (e *asn1Element) isSequence() bool            { return e.isUniversal(0x10) && e.constructed }
func (e *asn1Element) isSet() bool                 { return e.isUniversal(0x11) && e.constructed }
func (e *asn1Element) isInteger() bool             { return e.isUniversal(0x02) && !e.constructed }
func (e *asn1Element) isOID() bool                 { return e.isUniversal(0x06) && !e.constructed }
func (e *asn1Element) isOctetString() bool         { return e.isUniversal(0x04) }
func (e *asn1Element) isContextTag(n uint32) bool  { return e.class == 2 && e.tag == n }

// parseAsn1Element decodes exactly one TLV starting at data[offset:] and
// returns the new offset.
func parseAsn1Element(data []byte, offset int) (asn1Element, int, error) {
	var e asn1Element
	if offset >= len(data) {
		return e, offset, errors.New("asn1: truncated tag")
	}
	b0 := data[offset]
	e.class = b0 >> 6
	e.constructed = b0&0x20 != 0
	tagNum := uint32(b0 & 0x1F)
	pos := offset + 1

	if tagNum == 0x1F {
		tagNum = 0
		for {
			if pos >= len(data) {
				return e, offset, errors.New("asn1: truncated high tag number")
			}
			b := data[pos]
			tagNum = tagNum<<7 | uint32(b&0x7F)
			pos++
			if b&0x80 == 0 {
				break
			}
		}
	}
	e.tag = tagNum

	if pos >= len(data) {
		return e, offset, errors.New("asn1: truncated length")
	}
	lenByte := data[pos]
	pos++

	indefinite := false
	var length int
	switch {
	case lenByte&0x80 == 0:
		length = int(lenByte)
	case lenByte == 0x80:
		indefinite = true
	default:
		n := int(lenByte & 0x7F)
		if n > 4 || pos+n > len(data) {
			return e, offset, errors.New("asn1: unsupported length encoding")
		}
		for i := 0; i < n; i++ {
			length = length<<8 | int(data[pos+i])
		}
		pos += n
	}

	contentStart := pos
	var contentEnd int
	if indefinite {
		// scan children until a 00 00 end-of-contents marker
		p := contentStart
		for {
			if p+2 > len(data) {
				return e, offset, errors.New("asn1: unterminated indefinite length")
			}
			if data[p] == 0 && data[p+1] == 0 {
				contentEnd = p
				pos = p + 2
				break
			}
			child, next, err := parseAsn1Element(data, p)
			if err != nil {
				return e, offset, err
			}
			if e.constructed {
				e.children = append(e.children, child)
			}
			p = next
		}
	} else {
		contentEnd = contentStart + length
		if contentEnd > len(data) {
			return e, offset, errors.New("asn1: length exceeds buffer")
		}
		pos = contentEnd
	}

	e.value = data[contentStart:contentEnd]
	e.headerLen = contentStart - offset
	e.contentLen = contentEnd - contentStart

	if e.constructed && !indefinite {
		p := contentStart
		for p < contentEnd {
			child, next, err := parseAsn1Element(data, p)
			if err != nil {
				return e, offset, err
			}
			e.children = append(e.children, child)
			p = next
		}
	}

	return e, pos, nil
}

// parseAsn1All parses a sequence of top-level elements, used when a DER
// blob is not itself wrapped in an outer SEQUENCE.
func parseAsn1All(data []byte) ([]asn1Element, error) {
	var out []asn1Element
	pos := 0
	for pos < len(data) {
		e, next, err := parseAsn1Element(data, pos)
		if err != nil {
			return out, err
		}
		out = append(out, e)
		pos = next
	}
	return out, nil
}

func (e *asn1Element) oidString() string {
	if len(e.value) == 0 {
		return ""
	}
	var parts []string
	first := int(e.value[0])
	parts = append(parts, strconv.Itoa(first/40), strconv.Itoa(first%40))
	val := uint64(0)
	for _, b := range e.value[1:] {
		val = val<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			parts = append(parts, strconv.FormatUint(val, 10))
			val = 0
		}
	}
	return strings.Join(parts, ".")
}

func (e *asn1Element) findContextChild(n uint32) *asn1Element {
	for i := range e.children {
		if e.children[i].isContextTag(n) {
			return &e.children[i]
		}
	}
	return nil
}

const oidRSAEncryption = "1.2.840.113549.1.1.1"
const oidPKCS7EnvelopedData = "1.2.840.113549.1.7.3"
const oidPKCS7SignedData = "1.2.840.113549.1.7.2"

// RecipientInfo describes one PKCS#7 KeyTransRecipientInfo extracted from
// a /Recipients entry: who the seed was encrypted for, and the
// RSA-encrypted seed itself. The actual private-key operation is left to
// the host application (see docCrypt.SupplySeed).
type RecipientInfo struct {
	IssuerDER        []byte
	SerialNumber     []byte
	KeyEncAlgorithm  string
	EncryptedKey     []byte
}

// parsePkcs7Recipients extracts the recipient list from one DER-encoded
// PKCS#7 blob as found in the /Recipients array of an /Adobe.PubSec
// encryption dictionary. It descends ContentInfo -> EnvelopedData ->
// RecipientInfos without validating the (irrelevant to a reader)
// encryptedContentInfo payload.
func parsePkcs7Recipients(der []byte) ([]RecipientInfo, error) {
	top, err := parseAsn1All(der)
	if err != nil || len(top) == 0 {
		return nil, fmt.Errorf("pkcs7: %w", err)
	}
	contentInfo := &top[0]
	if !contentInfo.isSequence() || len(contentInfo.children) < 2 {
		return nil, errors.New("pkcs7: not a ContentInfo SEQUENCE")
	}
	oid := contentInfo.children[0].oidString()
	if oid != oidPKCS7EnvelopedData {
		return nil, fmt.Errorf("pkcs7: unsupported content type %s", oid)
	}

	explicit0 := contentInfo.children[1]
	if !explicit0.isContextTag(0) || len(explicit0.children) == 0 {
		return nil, errors.New("pkcs7: missing [0] EXPLICIT content")
	}
	envelopedData := explicit0.children[0]
	if !envelopedData.isSequence() {
		return nil, errors.New("pkcs7: EnvelopedData is not a SEQUENCE")
	}

	idx := 1 // skip CMSVersion
	if idx >= len(envelopedData.children) {
		return nil, errors.New("pkcs7: EnvelopedData truncated")
	}
	if envelopedData.children[idx].isContextTag(0) {
		idx++ // skip optional originatorInfo
	}
	if idx >= len(envelopedData.children) || !envelopedData.children[idx].isSet() {
		return nil, errors.New("pkcs7: missing RecipientInfos SET")
	}
	recipientsSet := envelopedData.children[idx]

	var out []RecipientInfo
	for _, ktri := range recipientsSet.children {
		if !ktri.isSequence() || len(ktri.children) < 4 {
			continue
		}
		// children: version, rid (IssuerAndSerialNumber SEQUENCE or
		// [0] SubjectKeyIdentifier), keyEncryptionAlgorithm, encryptedKey
		rid := ktri.children[1]
		var ri RecipientInfo
		if rid.isSequence() && len(rid.children) == 2 {
			ri.IssuerDER = rid.children[0].value
			ri.SerialNumber = rid.children[1].value
		} else if rid.isContextTag(0) {
			ri.SerialNumber = rid.value
		} else {
			continue
		}

		algo := ktri.children[2]
		if algo.isSequence() && len(algo.children) >= 1 {
			ri.KeyEncAlgorithm = algo.children[0].oidString()
		}

		encKey := ktri.children[3]
		ri.EncryptedKey = encKey.value

		out = append(out, ri)
	}
	return out, nil
}

// pubSecKeyFromSeed implements the /Adobe.PubSec file-key derivation: the
// file encryption key is the first 20 bytes of SHA-1(seed || each
// recipient's raw /Recipients DER blob || little-endian permissions),
// matching Adobe's published extension to PKCS#7 enveloping.
func pubSecKeyFromSeed(seed []byte, recipientBlobs [][]byte, perms uint32) []byte {
	h := sha1.New()
	h.Write(seed)
	for _, blob := range recipientBlobs {
		h.Write(blob)
	}
	h.Write([]byte{byte(perms), byte(perms >> 8), byte(perms >> 16), byte(perms >> 24)})
	return h.Sum(nil)[:20]
}

// pubSecCrypt holds the state needed to finish /Adobe.PubSec
// authentication once the host supplies the RSA-decrypted seed.
type pubSecCrypt struct {
	recipientBlobs [][]byte
	perms          uint32
	recipients     []RecipientInfo

	key []byte
}

func newPubSecCrypt(enc Dict) (*pubSecCrypt, error) {
	recipArr, _ := enc["Recipients"].(Array)
	if len(recipArr) == 0 {
		return nil, &MalformedFileError{Err: errors.New("Adobe.PubSec Encrypt dict has no /Recipients")}
	}
	pc := &pubSecCrypt{}
	if p, ok := enc["P"].(Integer); ok {
		pc.perms = uint32(int32(p))
	}
	for _, obj := range recipArr {
		s, ok := obj.(String)
		if !ok {
			continue
		}
		pc.recipientBlobs = append(pc.recipientBlobs, []byte(s))
		if ris, err := parsePkcs7Recipients([]byte(s)); err == nil {
			pc.recipients = append(pc.recipients, ris...)
		}
	}
	if len(pc.recipients) == 0 {
		return nil, &MalformedFileError{Err: errors.New("no recipient could be parsed from /Recipients")}
	}
	return pc, nil
}

// SupplySeed accepts the host-decrypted RSA seed (32 bytes, as produced by
// unwrapping any one recipient's EncryptedKey with its matching private
// key) and derives the document's file encryption key.
func (pc *pubSecCrypt) SupplySeed(seed []byte) error {
	if len(seed) != 32 {
		return errors.New("pubsec: seed must be 32 bytes")
	}
	pc.key = pubSecKeyFromSeed(seed, pc.recipientBlobs, pc.perms)
	return nil
}

// Recipients returns the parsed recipient list so a host application can
// match one against its available certificates before calling SupplySeed.
func (pc *pubSecCrypt) Recipients() []RecipientInfo { return pc.recipients }

// pubSecCipher reports the stream cipher an /Adobe.PubSec filter uses, read from
// the same /CF /StdCF /CFM convention the standard security handler uses
// (V4/V5 style); V1/V2 files default to RC4.
func pubSecCipher(enc Dict) cipherType {
	CF, _ := enc["CF"].(Dict)
	name, _ := enc["StmF"].(Name)
	if name == "" {
		name, _ = enc["StrF"].(Name)
	}
	if CF != nil && name != "" {
		if cf, err := getCryptFilter(name, CF); err == nil {
			return cf.Cipher
		}
	}
	return cipherRC4
}

// KeyFor derives the per-object decrypt key once SupplySeed has succeeded,
// using the same revision-2-4-style per-object hash as the standard
// security handler (/Adobe.PubSec never reaches R5/R6 semantics).
func (pc *pubSecCrypt) KeyFor(ref Reference, cipher cipherType) (*objectKey, error) {
	if pc.key == nil {
		return nil, &AuthenticationError{}
	}
	h := md5.New()
	h.Write(pc.key)
	num, gen := ref.Number(), ref.Generation()
	h.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), byte(gen), byte(gen >> 8)})
	if cipher == cipherAES {
		h.Write([]byte("sAlT"))
	}
	l := len(pc.key) + 5
	if l > 16 {
		l = 16
	}
	return &objectKey{key: h.Sum(nil)[:l], cipher: cipher}, nil
}
