package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
	"github.com/gregLibert/smart-card-shell/pkg/cardcrypto"
	"github.com/gregLibert/smart-card-shell/pkg/i18n"
)

// CryptoShell runs the "crypto <verb> ..." lines. Argument vectors keep the
// leading "crypto".
type CryptoShell struct {
	out      io.Writer
	help     *i18n.Catalog
	commands commandTable
}

// NewCryptoShell writes results to out and takes its help text from help.
func NewCryptoShell(out io.Writer, help *i18n.Catalog) *CryptoShell {
	c := &CryptoShell{out: out, help: help}
	c.commands = commandTable{
		{Name: "sha", Run: c.sha},
		{Name: "sha3", Run: c.sha3},
		{Name: "rsa", Run: c.rsa},
		{Name: "rsa-keygen", Run: c.rsaKeygen},
		{Name: "des", Run: c.des},
		{Name: "des-kcv", Run: c.desKCV},
		{Name: "aes", Run: c.aes},
		{Name: "aes-kcv", Run: c.aesKCV},
	}
	return c
}

// Execute runs argv, whose first token is "crypto". Without a sub-verb it
// prints the crypto help; an unknown sub-verb is reported but is not an error.
func (c *CryptoShell) Execute(argv []string) error {
	if len(argv) < 2 {
		writeHelp(c.out, c.help, "crypto", "crypto", c.commands)
		return nil
	}
	if cmd, ok := c.commands.find(argv[1]); ok {
		return cmd.Run(argv)
	}
	fmt.Fprint(c.out, "Unknown crypto command\n")
	return nil
}

func (c *CryptoShell) usage(line string) error {
	fmt.Fprintf(c.out, "%s\n", line)
	return nil
}

// echo repeats the normalized command line, then prints the result.
func (c *CryptoShell) echo(head string, data, result buffer.Bytes) {
	fmt.Fprintf(c.out, "%s hex %s\n%s\n", head, data, result.Hex())
}

func (c *CryptoShell) sha(argv []string) error {
	const usage = "crypto sha [1/224/256/384/512] <hex/ascii> {buffer}"
	return c.digest(argv, usage, cardcrypto.SHA)
}

func (c *CryptoShell) sha3(argv []string) error {
	const usage = "crypto sha3 [224/256/384/512] <hex/ascii> {buffer}"
	return c.digest(argv, usage, cardcrypto.SHA3)
}

func (c *CryptoShell) digest(argv []string, usage string, sum func(int, []byte) ([]byte, error)) error {
	if len(argv) < 4 {
		return c.usage(usage)
	}
	size, err := strconv.Atoi(argv[2])
	if err != nil {
		return c.usage(usage)
	}
	mode, ok := buffer.ParseMode(argv[3])
	if !ok {
		return c.usage(usage)
	}
	data, err := buffer.Join(argv[4:], mode)
	if err != nil {
		return err
	}

	result, err := sum(size, data)
	if errors.Is(err, cardcrypto.ErrUnsupported) {
		return c.usage(usage)
	}
	if err != nil {
		return err
	}
	c.echo(fmt.Sprintf("%s %s %s", argv[0], argv[1], argv[2]), data, result)
	return nil
}

func (c *CryptoShell) rsa(argv []string) error {
	const usage = "crypto rsa <modulus> <exponent> <hex/ascii> {buffer}"
	if len(argv) < 5 {
		return c.usage(usage)
	}
	modulus, err := buffer.ParseHex(argv[2])
	if err != nil {
		return err
	}
	exponent, err := buffer.ParseHex(argv[3])
	if err != nil {
		return err
	}
	mode, ok := buffer.ParseMode(argv[4])
	if !ok {
		return c.usage(usage)
	}
	data, err := buffer.Join(argv[5:], mode)
	if err != nil {
		return err
	}

	result, err := cardcrypto.RSA(modulus, exponent, data)
	if err != nil {
		return err
	}
	c.echo(fmt.Sprintf("%s %s %s %s", argv[0], argv[1], modulus.Hex(), exponent.Hex()), data, result)
	return nil
}

func (c *CryptoShell) rsaKeygen(argv []string) error {
	if len(argv) != 4 {
		return c.usage("crypto rsa-keygen <bits> <public exponent>")
	}
	bits, err := strconv.Atoi(argv[2])
	if err != nil {
		return &buffer.FormatError{Input: argv[2], Reason: "not a number"}
	}
	exponent, err := buffer.ParseHex(argv[3])
	if err != nil {
		return err
	}

	key, err := cardcrypto.GenerateRSAKey(bits, exponent)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s %d %s\n", argv[0], argv[1], bits, exponent.Hex())
	fmt.Fprintf(c.out, "Modulus: %s\n", buffer.Bytes(key.Modulus).Hex())
	fmt.Fprintf(c.out, "Public exponent: %s\n", buffer.Bytes(key.PublicExponent).Hex())
	fmt.Fprintf(c.out, "Private exponent: %s\n", buffer.Bytes(key.PrivateExponent).Hex())
	return nil
}

type blockFunc func(encrypt bool, mode cardcrypto.Mode, key, iv, data []byte) ([]byte, error)

func (c *CryptoShell) des(argv []string) error {
	const usage = "crypto des <encrypt/decrypt> <ecb/cbc {iv}> <key> <hex/ascii> {buffer}"
	return c.cipher(argv, usage, cardcrypto.DES)
}

func (c *CryptoShell) aes(argv []string) error {
	const usage = "crypto aes <encrypt/decrypt> <ecb/cbc {iv}> <key> <hex/ascii> {buffer}"
	return c.cipher(argv, usage, cardcrypto.AES)
}

// cipher reads "<encrypt/decrypt> <ecb | cbc iv> <key> <mode> {buffer}"
// from argv[2:].
func (c *CryptoShell) cipher(argv []string, usage string, run blockFunc) error {
	if len(argv) < 6 {
		return c.usage(usage)
	}

	var encrypt bool
	switch argv[2] {
	case "encrypt":
		encrypt = true
	case "decrypt":
	default:
		return c.usage(usage)
	}

	next := 4
	var mode cardcrypto.Mode
	var iv buffer.Bytes
	switch argv[3] {
	case "ecb":
		mode = cardcrypto.ECB
	case "cbc":
		mode = cardcrypto.CBC
		if len(argv) < 7 {
			return c.usage(usage)
		}
		var err error
		if iv, err = buffer.ParseHex(argv[4]); err != nil {
			return err
		}
		next = 5
	default:
		return c.usage(usage)
	}

	key, err := buffer.ParseHex(argv[next])
	if err != nil {
		return err
	}
	literal, ok := buffer.ParseMode(argv[next+1])
	if !ok {
		return c.usage(usage)
	}
	data, err := buffer.Join(argv[next+2:], literal)
	if err != nil {
		return err
	}

	result, err := run(encrypt, mode, key, iv, data)
	if err != nil {
		return err
	}

	head := fmt.Sprintf("%s %s %s %s", argv[0], argv[1], argv[2], mode)
	if mode == cardcrypto.CBC {
		head += " " + iv.Hex()
	}
	c.echo(head+" "+key.Hex(), data, result)
	return nil
}

func (c *CryptoShell) desKCV(argv []string) error {
	return c.kcv(argv, "crypto des-kcv <key>", cardcrypto.DESKCV)
}

func (c *CryptoShell) aesKCV(argv []string) error {
	return c.kcv(argv, "crypto aes-kcv <key>", cardcrypto.AESKCV)
}

func (c *CryptoShell) kcv(argv []string, usage string, run func([]byte) ([]byte, error)) error {
	if len(argv) != 3 {
		return c.usage(usage)
	}
	key, err := buffer.ParseHex(argv[2])
	if err != nil {
		return err
	}
	result, err := run(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s %s\n%s\n", argv[0], argv[1], key.Hex(), buffer.Bytes(result).Hex())
	return nil
}
