package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
)

// System program transfer instruction index.
const transferInstruction = 2

var systemProgramId = make([]byte, 32)

// appendCompactU16 writes the Solana compact-u16 length prefix.
func appendCompactU16(buf *bytes.Buffer, n int) {
	for {
		if n < 0x80 {
			buf.WriteByte(byte(n))
			return
		}
		buf.WriteByte(byte(n&0x7f | 0x80))
		n >>= 7
	}
}

// buildTransferMessage serializes a legacy single-signer message moving
// lamports from the signer to the destination account.
func buildTransferMessage(from, to, recentBlockhash []byte, lamports uint64) []byte {
	var msg bytes.Buffer

	// Header: one required signature, no read-only signed accounts, one
	// read-only unsigned account (the system program).
	msg.Write([]byte{1, 0, 1})

	// Account keys: signer, destination, system program.
	appendCompactU16(&msg, 3)
	msg.Write(from)
	msg.Write(to)
	msg.Write(systemProgramId)

	msg.Write(recentBlockhash)

	// One instruction: system transfer.
	appendCompactU16(&msg, 1)
	msg.WriteByte(2) // program id index
	appendCompactU16(&msg, 2)
	msg.Write([]byte{0, 1}) // from, to

	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], transferInstruction)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	appendCompactU16(&msg, len(data))
	msg.Write(data)

	return msg.Bytes()
}

// signTransaction prepends the signature section to the message, producing
// the wire transaction accepted by sendTransaction.
func signTransaction(message []byte, signer ed25519.PrivateKey) []byte {
	signature := ed25519.Sign(signer, message)

	var tx bytes.Buffer
	appendCompactU16(&tx, 1)
	tx.Write(signature)
	tx.Write(message)
	return tx.Bytes()
}
