// Package wol sends Wake-on-LAN magic packets.
package wol

import (
	"context"
	"encoding/hex"
	"net"
	"strconv"
	"strings"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
)

const (
	DefaultBroadcast = "255.255.255.255"
	DefaultPort      = 9

	SuccessMessage = "Wake-on-LAN request successfully sent"
)

// Host is a named entry of the hosts table.
type Host struct {
	Name       string `yaml:"name" json:"name" validate:"required"`
	MACAddress string `yaml:"mac_address" json:"mac_address" validate:"required,mac"`
	IPAddress  string `yaml:"ip_address,omitempty" json:"ip_address,omitempty" validate:"omitempty,ip"`
	Port       int    `yaml:"port,omitempty" json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
}

// HostTable resolves host names to their Wake-on-LAN details.
type HostTable interface {
	LookupHost(name string) (Host, bool)
}

// Hosts is a HostTable backed by a slice. Names compare case-insensitively.
type Hosts []Host

// LookupHost implements HostTable.
func (h Hosts) LookupHost(name string) (Host, bool) {
	for _, host := range h {
		if strings.EqualFold(host.Name, name) {
			return host, true
		}
	}
	return Host{}, false
}

// Request names the machine to wake. Fields left empty are filled from the
// hosts table entry named Host.
type Request struct {
	Host       string `json:"host,omitempty"`
	MACAddress string `json:"mac_address,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// Result describes a sent packet.
type Result struct {
	Message    string `json:"message"`
	MACAddress string `json:"mac_address"`
	IPAddress  string `json:"ip_address,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// ParseMAC accepts a 48-bit MAC address separated by colons, hyphens or
// dots, or as twelve bare hex digits.
func ParseMAC(mac string) (net.HardwareAddr, error) {
	mac = strings.TrimSpace(mac)
	if len(mac) == 12 {
		if b, err := hex.DecodeString(mac); err == nil {
			return net.HardwareAddr(b), nil
		}
	}
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, errors.NewValidationError("mac_address", "Invalid MAC address", mac)
	}
	if len(hw) != 6 {
		return nil, errors.NewValidationError("mac_address", "MAC address must be 48 bits", mac)
	}
	return hw, nil
}

// MagicPacket builds the 102-byte payload that wakes mac: six 0xFF bytes
// followed by the address repeated sixteen times.
func MagicPacket(mac string) ([]byte, error) {
	hw, err := ParseMAC(mac)
	if err != nil {
		return nil, err
	}
	packet := make([]byte, 0, 6+16*len(hw))
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}

// Sender sends magic packets over UDP.
type Sender struct {
	Hosts  HostTable
	Logger *logging.Logger

	dialer *net.Dialer
}

// NewSender returns a Sender resolving names from hosts, which may be nil.
func NewSender(hosts HostTable) *Sender {
	return &Sender{
		Hosts:  hosts,
		Logger: logging.Default().WithComponent("wol"),
		dialer: &net.Dialer{Control: enableBroadcast},
	}
}

// Wake sends a magic packet for req. The destination address is only used
// when a port is given as well; otherwise the packet goes to the limited
// broadcast address on port 9.
func (s *Sender) Wake(ctx context.Context, req Request) (*Result, error) {
	if req.Host != "" && s.Hosts != nil {
		if host, ok := s.Hosts.LookupHost(req.Host); ok {
			if req.MACAddress == "" {
				req.MACAddress = host.MACAddress
			}
			if req.IPAddress == "" {
				req.IPAddress = host.IPAddress
			}
			if req.Port == 0 {
				req.Port = host.Port
			}
		}
	}

	if req.MACAddress == "" {
		return nil, errors.NewValidationError("mac_address",
			"No MAC address was provided and unable to resolve one from the hosts table", req.Host)
	}
	packet, err := MagicPacket(req.MACAddress)
	if err != nil {
		return nil, err
	}

	result := &Result{Message: SuccessMessage, MACAddress: req.MACAddress}
	ip, port := DefaultBroadcast, DefaultPort
	if req.Port != 0 {
		port = req.Port
		result.Port = req.Port
		if req.IPAddress != "" {
			ip = req.IPAddress
			result.IPAddress = req.IPAddress
		}
	}

	if s.Logger != nil {
		s.Logger.Info("Sending Wake-on-LAN request", "mac_address", req.MACAddress, "ip_address", ip, "port", port)
	}
	if err := s.send(ctx, net.JoinHostPort(ip, strconv.Itoa(port)), packet); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Sender) send(ctx context.Context, address string, packet []byte) error {
	dialer := s.dialer
	if dialer == nil {
		dialer = &net.Dialer{Control: enableBroadcast}
	}
	conn, err := dialer.DialContext(ctx, "udp", address)
	if err != nil {
		return errors.WrapCommandError("wakeonlan", err)
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return errors.WrapCommandError("wakeonlan", err)
	}
	return nil
}
