package bip340

import "github.com/sip-protocol/sip-bitcoin/pkg/hexutil"

// Hex-string variants of the byte-level API. All of them accept 0x-prefixed
// hex (the prefix is optional on input, always present on output) and apply
// the same validation as their byte counterparts.

// SignHex is the hex variant of Sign. auxRandHex may be empty to request
// fresh randomness.
func SignHex(messageHex, privateKeyHex, auxRandHex string) (string, error) {
	message, err := hexutil.DecodeFixed("message", messageHex, MessageSize)
	if err != nil {
		return "", err
	}
	privateKey, err := hexutil.DecodeFixed("privateKey", privateKeyHex, PrivateKeySize)
	if err != nil {
		return "", err
	}
	defer zeroBytes(privateKey)

	var auxRand []byte
	if auxRandHex != "" {
		auxRand, err = hexutil.DecodeFixed("auxRand", auxRandHex, AuxRandSize)
		if err != nil {
			return "", err
		}
	}

	sig, err := Sign(message, privateKey, auxRand)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

// VerifyHex is the hex variant of Verify.
func VerifyHex(signatureHex, messageHex, publicKeyHex string) (bool, error) {
	signature, err := hexutil.DecodeFixed("signature", signatureHex, SignatureSize)
	if err != nil {
		return false, err
	}
	message, err := hexutil.DecodeFixed("message", messageHex, MessageSize)
	if err != nil {
		return false, err
	}
	publicKey, err := hexutil.DecodeFixed("publicKey", publicKeyHex, PublicKeySize)
	if err != nil {
		return false, err
	}
	return Verify(signature, message, publicKey)
}

// XOnlyPublicKeyHex is the hex variant of XOnlyPublicKey.
func XOnlyPublicKeyHex(privateKeyHex string) (string, error) {
	privateKey, err := hexutil.DecodeFixed("privateKey", privateKeyHex, PrivateKeySize)
	if err != nil {
		return "", err
	}
	defer zeroBytes(privateKey)

	pub, err := XOnlyPublicKey(privateKey)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(pub), nil
}

// zeroBytes overwrites a secret buffer before it is released.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
