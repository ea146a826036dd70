package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// On-disk layout: magic, format version, KDF salt, GCM nonce, sealed table.
// The header doubles as the GCM additional data, so tampering with any part
// of it fails decryption.
const (
	fileMagic   = "SCRB"
	fileVersion = byte(1)
	saltSize    = 16
	nonceSize   = 12
	headerSize  = len(fileMagic) + 1 + saltSize + nonceSize
)

// Argon2id parameters for deriving the AES key from the master material.
const (
	kdfTime      = 3
	kdfMemoryKiB = 64 * 1024
	kdfThreads   = 4
	kdfKeySize   = 32
)

// ErrCorrupt reports a keystore file that is not in the expected format.
var ErrCorrupt = errors.New("keystore: file is corrupt")

// FileKeystore keeps all entries in one encrypted file. The table is a JSON
// map sealed with AES-256-GCM under an Argon2id-derived key; every write
// uses a fresh salt and nonce.
type FileKeystore struct {
	mu     sync.Mutex
	path   string
	master []byte
}

var _ Keystore = (*FileKeystore)(nil)

// NewFileKeystore opens the keystore file at path, creating it on first
// write. The master material is derived from the machine identity, which
// keeps keys unreadable to casual inspection but is not a defense against
// an attacker who can run code as this user.
func NewFileKeystore(path string) *FileKeystore {
	return &FileKeystore{path: path, master: machineIdentity()}
}

// NewFileKeystoreWithMaster opens the keystore at path with caller-supplied
// master material, for setups where a stronger secret is available.
func NewFileKeystoreWithMaster(path string, master []byte) (*FileKeystore, error) {
	if len(master) == 0 {
		return nil, errors.New("keystore: empty master key")
	}
	return &FileKeystore{path: path, master: master}, nil
}

// Set stores or replaces the key for a service.
func (f *FileKeystore) Set(name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.read()
	if err != nil {
		return err
	}
	table[name] = value
	return f.write(table)
}

// Get returns the key for a service.
func (f *FileKeystore) Get(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.read()
	if err != nil {
		return "", err
	}
	value, ok := table[name]
	if !ok {
		return "", &ErrKeyNotFound{Name: name}
	}
	return value, nil
}

// Delete removes the key for a service.
func (f *FileKeystore) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := table[name]; !ok {
		return &ErrKeyNotFound{Name: name}
	}
	delete(table, name)
	return f.write(table)
}

// List returns the stored service names in sorted order.
func (f *FileKeystore) List() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table, err := f.read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// checkName rejects service names that would be ambiguous in CLI output or
// on disk. Valid names are non-empty and free of separators and whitespace.
func checkName(name string) error {
	if name == "" {
		return errors.New("keystore: empty service name")
	}
	if strings.ContainsAny(name, "/\\ \t\r\n") {
		return fmt.Errorf("keystore: invalid service name %q", name)
	}
	return nil
}

// read loads and decrypts the table. A missing or empty file is an empty
// table, so first use needs no setup step.
func (f *FileKeystore) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	plaintext, err := f.unseal(raw)
	if err != nil {
		return nil, err
	}
	table := make(map[string]string)
	if err := json.Unmarshal(plaintext, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return table, nil
}

// write encrypts and replaces the file, creating the parent directory with
// user-only permissions on first write.
func (f *FileKeystore) write(table map[string]string) error {
	plaintext, err := json.Marshal(table)
	if err != nil {
		return err
	}
	sealed, err := f.seal(plaintext)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(f.path, sealed, 0600)
}

func (f *FileKeystore) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	header := make([]byte, 0, headerSize)
	header = append(header, fileMagic...)
	header = append(header, fileVersion)
	header = append(header, salt...)
	header = append(header, nonce...)

	aead, err := f.aead(salt)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, header)
	return append(header, sealed...), nil
}

func (f *FileKeystore) unseal(raw []byte) ([]byte, error) {
	if len(raw) < headerSize || string(raw[:len(fileMagic)]) != fileMagic {
		return nil, ErrCorrupt
	}
	if v := raw[len(fileMagic)]; v != fileVersion {
		return nil, fmt.Errorf("keystore: unsupported format version %d", v)
	}
	header := raw[:headerSize]
	salt := raw[len(fileMagic)+1 : len(fileMagic)+1+saltSize]
	nonce := raw[len(fileMagic)+1+saltSize : headerSize]

	aead, err := f.aead(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, raw[headerSize:], header)
	if err != nil {
		return nil, fmt.Errorf("keystore: decrypt failed (wrong master key or corrupt file): %w", err)
	}
	return plaintext, nil
}

func (f *FileKeystore) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(f.master, salt, kdfTime, kdfMemoryKiB, kdfThreads, kdfKeySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// machineIdentity builds the default master material from the host and user
// names.
func machineIdentity() []byte {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	sum := sha256.Sum256([]byte("scribe:" + host + ":" + user))
	return sum[:]
}
