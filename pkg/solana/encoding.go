package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/kira-labs/mintkit/pkg/solana/shortvec"
)

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return (&t.Message).Unmarshal(buf.Bytes())
}

func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		// Accounts
		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		// Data
		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	var header [3]byte
	if _, err := io.ReadFull(buf, header[:]); err != nil {
		return errors.Wrap(err, "failed to read message header")
	}
	m.Header.NumSignatures = header[0]
	m.Header.NumReadonlySigned = header[1]
	m.Header.NumReadOnly = header[2]

	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account length")
	}

	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err := io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at %d", i)
		}
	}

	if _, err := io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent blockhash")
	}

	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction length")
	}

	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		programIndex, err := buf.ReadByte()
		if err != nil {
			return errors.Wrapf(err, "failed to read program index for instruction %d", i)
		}
		if int(programIndex) >= accountLen {
			return errors.Errorf("program index out of range: %d:%d", i, programIndex)
		}
		m.Instructions[i].ProgramIndex = programIndex

		// Account indices
		accountIndexLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read account length for instruction %d", i)
		}
		m.Instructions[i].Accounts = make([]byte, accountIndexLen)
		if _, err := io.ReadFull(buf, m.Instructions[i].Accounts); err != nil {
			return errors.Wrapf(err, "failed to read accounts for instruction %d", i)
		}
		for _, index := range m.Instructions[i].Accounts {
			if int(index) >= accountLen {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}

		// Data
		dataLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read data length for instruction %d", i)
		}
		m.Instructions[i].Data = make([]byte, dataLen)
		if _, err := io.ReadFull(buf, m.Instructions[i].Data); err != nil {
			return errors.Wrapf(err, "failed to read data for instruction %d", i)
		}
	}

	return nil
}
