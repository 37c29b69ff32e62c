package ldap

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/5amu/adhound/pkg/proxyconn"
	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	"github.com/jcmturner/gokrb5/v8/client"
)

const DefaultPageSize uint32 = 500

type LdapClient struct {
	BaseDN   string
	Realm    string
	Host     string
	Conn     *ldap.Conn
	Port     int
	UseSSL   bool
	SkipTLS  bool
	PageSize uint32
}

func NewLdapClient(host string, port int, realm string, ssl bool, skiptls bool) *LdapClient {
	return &LdapClient{
		Host:     host,
		Port:     port,
		Realm:    realm,
		BaseDN:   ToDN(realm),
		SkipTLS:  skiptls,
		UseSSL:   ssl,
		PageSize: DefaultPageSize,
	}
}

// Close closes the ldap backend connection.
func (c *LdapClient) Close() {
	if c.Conn == nil {
		return
	}
	c.Conn.Close()
	c.Conn = nil
}

func (c *LdapClient) Connect() error {
	if c.Conn != nil {
		return nil
	}

	conn, err := proxyconn.GetConnection(c.Host, c.Port)
	if err != nil {
		return err
	}
	if c.UseSSL {
		conn = tls.Client(conn, &tls.Config{
			InsecureSkipVerify: true,
			ServerName:         c.Host,
		})
	}
	c.Conn = ldap.NewConn(conn, c.UseSSL)
	c.Conn.Start()

	if !c.UseSSL && !c.SkipTLS {
		return c.Conn.StartTLS(&tls.Config{
			InsecureSkipVerify: true,
			ServerName:         c.Host,
		})
	}
	return nil
}

// Authenticate authenticates the user against the ldap backend.
func (c *LdapClient) Authenticate(username, password string) error {
	if c.Conn == nil {
		if err := c.Connect(); err != nil {
			return err
		}
	}

	if err := c.Conn.NTLMBind(c.Realm, username, password); err == nil {
		return nil
	}

	switch password {
	case "":
		return c.Conn.UnauthenticatedBind(username)
	default:
		return c.Conn.Bind(username, password)
	}
}

func (c *LdapClient) AuthenticateNTLM(username, hash string) error {
	if c.Conn == nil {
		if err := c.Connect(); err != nil {
			return err
		}
	}
	return c.Conn.NTLMBindWithHash(c.Realm, username, hash)
}

// AuthenticateKerberos performs a GSSAPI bind using a TGT obtained with the
// provided password. krb5conf is the path of a krb5.conf describing the realm.
func (c *LdapClient) AuthenticateKerberos(username, password, krb5conf string) error {
	if c.Conn == nil {
		if err := c.Connect(); err != nil {
			return err
		}
	}

	krb5client, err := gssapi.NewClientWithPassword(
		username, strings.ToUpper(c.Realm), password, krb5conf,
		client.DisablePAFXFAST(true),
	)
	if err != nil {
		return err
	}
	defer krb5client.Close()

	return c.Conn.GSSAPIBind(krb5client, fmt.Sprintf("ldap/%s", c.Host), "")
}

func (c *LdapClient) Search(filter string, attributes ...string) ([]*ldap.Entry, error) {
	return c.SearchBase(c.BaseDN, ldap.ScopeWholeSubtree, filter, nil, attributes...)
}

// SearchBase runs a paged search rooted at base.
func (c *LdapClient) SearchBase(base string, scope int, filter string, controls []ldap.Control, attributes ...string) ([]*ldap.Entry, error) {
	if c.Conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	res, err := c.Conn.SearchWithPaging(ldap.NewSearchRequest(
		base, scope, ldap.NeverDerefAliases,
		0, 0, false, filter, attributes, controls,
	), c.PageSize)
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// LDAP_SERVER_SD_FLAGS_OID
// https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-adts/3888c2b7-35b9-45b7-afeb-b772aa932dd0
const ControlTypeSDFlags = "1.2.840.113556.1.4.801"

const (
	OwnerSecurityInformation = 0x1
	GroupSecurityInformation = 0x2
	DaclSecurityInformation  = 0x4
)

// NewControlSDFlags asks the server to return only the requested parts of
// nTSecurityDescriptor, which lets non-admin users read owner and DACL.
func NewControlSDFlags(flags int64) ldap.Control {
	seq := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "SDFlags")
	seq.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, flags, "Flags"))
	return ldap.NewControlString(ControlTypeSDFlags, true, string(seq.Bytes()))
}
