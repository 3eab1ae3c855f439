// Package userstore is a worked example of a tree consumer: a user
// directory keyed by username, backed by one bptree.BTree, plus a
// process-memory table of who is currently logged in. It exists to
// exercise the storage engine end to end, not to be a complete account
// system.
package userstore

import (
	"github.com/sjtu-ticket/bptreeindex"
)

const (
	usernameWidth = 20
	passwordWidth = 30
	nameWidth     = 20
	emailWidth    = 30
)

// User is one directory entry. It is the Value half of the tree's
// composite key, so it must itself be Ordered even though usernames
// are unique in practice and the value side of the comparison is
// rarely exercised.
type User struct {
	Username  bptree.FixedString
	Password  bptree.FixedString
	Name      bptree.FixedString
	Email     bptree.FixedString
	Privilege int
}

// NewUser builds a User from plain strings, padding each field to its
// fixed width.
func NewUser(username, password, name, email string, privilege int) User {
	return User{
		Username:  bptree.NewFixedString(usernameWidth, username),
		Password:  bptree.NewFixedString(passwordWidth, password),
		Name:      bptree.NewFixedString(nameWidth, name),
		Email:     bptree.NewFixedString(emailWidth, email),
		Privilege: privilege,
	}
}

// CompareTo orders users by username, then password, then name, then
// email, then privilege: an arbitrary but total and deterministic
// order, as the tree requires of its value type.
func (u User) CompareTo(other User) int {
	if c := u.Username.CompareTo(other.Username); c != 0 {
		return c
	}
	if c := u.Password.CompareTo(other.Password); c != 0 {
		return c
	}
	if c := u.Name.CompareTo(other.Name); c != 0 {
		return c
	}
	if c := u.Email.CompareTo(other.Email); c != 0 {
		return c
	}
	switch {
	case u.Privilege < other.Privilege:
		return -1
	case u.Privilege > other.Privilege:
		return 1
	default:
		return 0
	}
}

// userCodec is the byte-image Codec for User, used to store it as a
// tree value.
type userCodec struct {
	usernameCodec, passwordCodec, nameCodec, emailCodec bptree.Codec[bptree.FixedString]
}

func newUserCodec() userCodec {
	fs := func(w int) bptree.Codec[bptree.FixedString] { return bptree.NewFixedStringCodec(w) }
	return userCodec{
		usernameCodec: fs(usernameWidth),
		passwordCodec: fs(passwordWidth),
		nameCodec:     fs(nameWidth),
		emailCodec:    fs(emailWidth),
	}
}

func (c userCodec) Size() int {
	return c.usernameCodec.Size() + c.passwordCodec.Size() + c.nameCodec.Size() + c.emailCodec.Size() + 4
}

func (c userCodec) Encode(u User, dst []byte) {
	off := 0
	put := func(codec bptree.Codec[bptree.FixedString], v bptree.FixedString) {
		codec.Encode(v, dst[off:off+codec.Size()])
		off += codec.Size()
	}
	put(c.usernameCodec, u.Username)
	put(c.passwordCodec, u.Password)
	put(c.nameCodec, u.Name)
	put(c.emailCodec, u.Email)
	p := uint32(u.Privilege)
	dst[off] = byte(p)
	dst[off+1] = byte(p >> 8)
	dst[off+2] = byte(p >> 16)
	dst[off+3] = byte(p >> 24)
}

func (c userCodec) Decode(src []byte) User {
	off := 0
	get := func(codec bptree.Codec[bptree.FixedString]) bptree.FixedString {
		v := codec.Decode(src[off : off+codec.Size()])
		off += codec.Size()
		return v
	}
	u := User{
		Username: get(c.usernameCodec),
		Password: get(c.passwordCodec),
		Name:     get(c.nameCodec),
		Email:    get(c.emailCodec),
	}
	p := uint32(src[off]) | uint32(src[off+1])<<8 | uint32(src[off+2])<<16 | uint32(src[off+3])<<24
	u.Privilege = int(int32(p))
	return u
}
