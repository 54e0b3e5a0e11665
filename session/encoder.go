package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionCurrent = 1

// Encode serializes a [Session] into the compact binary wire format.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	if len(s.PrincipalID) > 255 {
		return nil, errors.New("principalID too long")
	}
	buf.WriteByte(byte(len(s.PrincipalID)))
	buf.WriteString(s.PrincipalID)

	if len(s.StorageKey) > 255 {
		return nil, errors.New("storageKey too long")
	}
	buf.WriteByte(byte(len(s.StorageKey)))
	buf.WriteString(s.StorageKey)

	buf.Write(s.IPHash[:])
	buf.Write(s.UserAgentHash[:])

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.LastActivity); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses the compact binary wire format back into a [Session].
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	principalLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	principalID := make([]byte, principalLen)
	if _, err := io.ReadFull(reader, principalID); err != nil {
		return nil, err
	}
	s.PrincipalID = string(principalID)

	keyLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	storageKey := make([]byte, keyLen)
	if _, err := io.ReadFull(reader, storageKey); err != nil {
		return nil, err
	}
	s.StorageKey = string(storageKey)

	if _, err := io.ReadFull(reader, s.IPHash[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, s.UserAgentHash[:]); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.LastActivity); err != nil {
		return nil, err
	}

	return s, nil
}
