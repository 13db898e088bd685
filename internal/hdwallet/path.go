package hdwallet

import (
	"strconv"
	"strings"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// BIP44 levels for this coin.
const (
	Purpose  = 44 | Hardened
	CoinType = 1815 | Hardened
)

// Chain selects the external (receiving) or internal (change) branch.
type Chain uint32

// Address chains.
const (
	External Chain = 0
	Internal Chain = 1
)

// Valid reports whether c is one of the two address chains.
func (c Chain) Valid() bool {
	return c == External || c == Internal
}

func (c Chain) String() string {
	if c == Internal {
		return "internal"
	}
	return "external"
}

// ParseChain accepts "external"/"internal" or "0"/"1".
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "external", "receive", "0":
		return External, nil
	case "internal", "change", "1":
		return Internal, nil
	default:
		return 0, tesserr.WithDetails(tesserr.ErrInvalidChain, map[string]string{"chain": s})
	}
}

// Path is a sequence of derivation indices below the root.
type Path []uint32

// AccountPath returns m/44'/1815'/account'.
func AccountPath(account uint32) Path {
	return Path{Purpose, CoinType, account | Hardened}
}

// AddressPath returns m/44'/1815'/account'/chain/index.
func AddressPath(account uint32, chain Chain, index uint32) Path {
	return Path{Purpose, CoinType, account | Hardened, uint32(chain), index}
}

// String renders the path as m/44'/1815'/0'/0/3.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, index := range p {
		b.WriteByte('/')
		if index >= Hardened {
			b.WriteString(strconv.FormatUint(uint64(index-Hardened), 10))
			b.WriteByte('\'')
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return b.String()
}

// ParsePath parses "m/44'/1815'/0'/0/3". Both ' and h mark hardened levels.
func ParsePath(s string) (Path, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, tesserr.WithDetails(tesserr.ErrInvalidPath, map[string]string{"path": s})
	}

	path := make(Path, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil || uint32(n) >= Hardened {
			return nil, tesserr.WithDetails(tesserr.ErrInvalidPath, map[string]string{"path": s, "level": part})
		}
		index := uint32(n)
		if hardened {
			index |= Hardened
		}
		path = append(path, index)
	}
	return path, nil
}
