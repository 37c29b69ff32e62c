package config

import (
	"bufio"
	"net"
	"os"
	"strings"
)

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func isFile(s string) bool {
	st, err := os.Stat(s)
	return err == nil && !st.IsDir()
}

func inc(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

// ExpandTargets resolves every entry to a list of hosts. An entry can be a
// host, a CIDR (network and broadcast addresses are skipped) or a file with
// one entry per line. Duplicates are dropped.
func ExpandTargets(list []string) []string {
	var res []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		res = append(res, t)
	}

	for _, l := range list {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if ip, ipnet, err := net.ParseCIDR(l); err == nil {
			var ips []string
			for ip := ip.Mask(ipnet.Mask); ipnet.Contains(ip); inc(ip) {
				ips = append(ips, ip.String())
			}
			if len(ips) > 2 {
				ips = ips[1 : len(ips)-1]
			}
			for _, ip := range ips {
				add(ip)
			}
			continue
		}
		if isFile(l) {
			lines, err := readLines(l)
			if err == nil {
				for _, line := range lines {
					add(line)
				}
				continue
			}
		}
		add(l)
	}
	return res
}
