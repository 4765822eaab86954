package crypto

import "encoding/binary"

const aadCredential = "CREDENTIAL"

// AADCredential builds the associated data binding a sealed secret to the
// credential row it belongs to. Swapping ciphertexts between rows fails
// authentication on Open. Records are re-sealed whenever site or username
// change, so the binding stays current.
func AADCredential(siteURL, username string) []byte {
	return buildAAD(aadCredential, siteURL, username)
}

func buildAAD(parts ...string) []byte {
	var res []byte
	for _, p := range parts {
		res = appendLenPrefix(res, []byte(p))
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(data)))
	b = append(b, l...)
	b = append(b, data...)
	return b
}
