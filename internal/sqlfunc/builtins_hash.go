package sqlfunc

import (
	"crypto/md5"  //nolint:gosec // exposed as a SQL helper, not used for security
	"crypto/sha1" //nolint:gosec // exposed as a SQL helper, not used for security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
)

func hashFunctions() []Function {
	hexOf := func(sum []byte) string { return hex.EncodeToString(sum) }

	return []Function{
		{
			Name: "md5", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Hashes string using md5 algorithm.",
			Impl: func(s string) string { h := md5.Sum([]byte(s)); return hexOf(h[:]) }, //nolint:gosec // see import
		},
		{
			Name: "sha1", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Hashes string using sha1 algorithm.",
			Impl: func(s string) string { h := sha1.Sum([]byte(s)); return hexOf(h[:]) }, //nolint:gosec // see import
		},
		{
			Name: "sha224", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Hashes string using sha224 algorithm.",
			Impl: func(s string) string { h := sha256.Sum224([]byte(s)); return hexOf(h[:]) },
		},
		{
			Name: "sha256", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Hashes string using sha256 algorithm.",
			Impl: func(s string) string { h := sha256.Sum256([]byte(s)); return hexOf(h[:]) },
		},
		{
			Name: "sha384", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Hashes string using sha384 algorithm.",
			Impl: func(s string) string { h := sha512.Sum384([]byte(s)); return hexOf(h[:]) },
		},
		{
			Name: "sha512", Params: []Param{str("string")}, Returns: TypeString, Pure: true,
			Doc:  "Hashes string using sha512 algorithm.",
			Impl: func(s string) string { h := sha512.Sum512([]byte(s)); return hexOf(h[:]) },
		},
	}
}
