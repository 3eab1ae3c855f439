package userstore

import "github.com/sjtu-ticket/bptreeindex"

// DefaultPageSlotCount and DefaultCacheCapacity are re-exported so
// callers building a UserManager can reuse the storage engine's
// default sizing without importing the bptree package themselves.
const (
	DefaultPageSlotCount = bptree.DefaultPageSlotCount
	DefaultCacheCapacity = bptree.DefaultCacheCapacity
)

// UserManager is a directory of Users keyed by username, backed by one
// BTree, plus an in-process table of who is currently logged in and at
// what privilege. It demonstrates composing BTree.Find/Insert/Erase
// into a small stateful service; privilege 10 is root.
type UserManager struct {
	tree      *bptree.BTree[bptree.FixedString, User]
	loginList map[bptree.FixedString]int
}

// NewUserManager opens (or creates) the user directory at path.
func NewUserManager(path string, slotCount, cacheCapacity int) (*UserManager, error) {
	codec := bptree.NewPageCodec[bptree.FixedString, User](slotCount, bptree.NewFixedStringCodec(usernameWidth), newUserCodec())
	disk := bptree.NewDiskManager[*bptree.Page[bptree.FixedString, User]](codec, bptree.DefaultInfoLen, true)
	if err := disk.Initialise(path); err != nil {
		return nil, err
	}
	buf := bptree.NewBufferManager[bptree.FixedString, User](disk, cacheCapacity)
	tree := bptree.NewBTree[bptree.FixedString, User](buf, slotCount)
	return &UserManager{
		tree:      tree,
		loginList: make(map[bptree.FixedString]int),
	}, nil
}

// Close persists the tree's root and flushes its buffer manager.
func (m *UserManager) Close() error {
	return m.tree.Close()
}

func username(s string) bptree.FixedString { return bptree.NewFixedString(usernameWidth, s) }

// AddUser registers username if curUsername is logged in with
// strictly higher privilege than the new account (or, for the very
// first user, curUsername is ignored by the caller convention of
// calling AddFirstUser instead). It reports ok=false on any rule
// violation.
func (m *UserManager) AddUser(curUsername, newUsername, password, name, email string, privilege int) bool {
	actingPrivilege, loggedIn := m.loginList[username(curUsername)]
	if !loggedIn || actingPrivilege <= privilege {
		return false
	}
	if _, found := m.tree.Find(username(newUsername)); found {
		return false
	}
	m.tree.Insert(username(newUsername), NewUser(newUsername, password, name, email, privilege))
	return true
}

// AddFirstUser seeds the directory with its first (root) account,
// bypassing the acting-user privilege check AddUser requires.
func (m *UserManager) AddFirstUser(newUsername, password, name, email string, privilege int) bool {
	if _, found := m.tree.Find(username(newUsername)); found {
		return false
	}
	m.tree.Insert(username(newUsername), NewUser(newUsername, password, name, email, privilege))
	return true
}

// Login authenticates username/password and, on success, adds it to
// the login table at its stored privilege.
func (m *UserManager) Login(usernameStr, password string) bool {
	key := username(usernameStr)
	if _, already := m.loginList[key]; already {
		return false
	}
	user, found := m.tree.Find(key)
	if !found || user.Password.String() != password {
		return false
	}
	m.loginList[key] = user.Privilege
	return true
}

// Logout removes username from the login table.
func (m *UserManager) Logout(usernameStr string) bool {
	key := username(usernameStr)
	if _, ok := m.loginList[key]; !ok {
		return false
	}
	delete(m.loginList, key)
	return true
}

// QueryProfile returns target's profile, if curUsername is logged in
// at a privilege no lower than target's.
func (m *UserManager) QueryProfile(curUsername, target string) (User, bool) {
	actingPrivilege, loggedIn := m.loginList[username(curUsername)]
	if !loggedIn {
		return User{}, false
	}
	user, found := m.tree.Find(username(target))
	if !found || user.Privilege > actingPrivilege {
		return User{}, false
	}
	return user, true
}

// ProfilePatch carries the optional fields ModifyProfile may change;
// a nil field leaves the corresponding User field unchanged.
type ProfilePatch struct {
	Password  *string
	Name      *string
	Email     *string
	Privilege *int
}

// ModifyProfile updates target's profile. Only the acting user itself,
// or someone with strictly higher privilege than target, may modify
// it; the new privilege (if any) must be strictly below the target's
// current privilege.
func (m *UserManager) ModifyProfile(curUsername, target string, patch ProfilePatch) (User, bool) {
	actingPrivilege, loggedIn := m.loginList[username(curUsername)]
	if !loggedIn {
		return User{}, false
	}
	key := username(target)
	user, found := m.tree.Find(key)
	if !found {
		return User{}, false
	}
	if curUsername != target && actingPrivilege <= user.Privilege {
		return User{}, false
	}
	if patch.Privilege != nil && *patch.Privilege >= user.Privilege {
		return User{}, false
	}

	updated := user
	if patch.Password != nil {
		updated.Password = bptree.NewFixedString(passwordWidth, *patch.Password)
	}
	if patch.Name != nil {
		updated.Name = bptree.NewFixedString(nameWidth, *patch.Name)
	}
	if patch.Email != nil {
		updated.Email = bptree.NewFixedString(emailWidth, *patch.Email)
	}
	if patch.Privilege != nil {
		updated.Privilege = *patch.Privilege
	}

	m.tree.Erase(key, user)
	m.tree.Insert(key, updated)
	if curUsername == target && patch.Privilege != nil {
		m.loginList[key] = *patch.Privilege
	}
	return updated, true
}
