package install

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cloudstrap/cloudstrap/internal/config"
	"github.com/cloudstrap/cloudstrap/internal/keygen"
	"github.com/cloudstrap/cloudstrap/internal/netutil"
	"github.com/cloudstrap/cloudstrap/internal/runner"
	"github.com/cloudstrap/cloudstrap/internal/store"
	"github.com/cloudstrap/cloudstrap/internal/util/retry"
)

// CLI surfaces of the external collaborators. The installer drives them;
// it does not reimplement them.
const (
	metalCLI      = "metal"       // provisioning service client
	metalAdminCLI = "metal-admin" // provisioning service admin tool
	conductorCLI  = "conductor"   // cluster orchestration tool

	metalPackage  = "cloudstrap-metal"
	bridgeName    = "br0"
	localEndpoint = "http://localhost/metal/api/2.0"
	envName       = "metal"
	bootstrapNode = "conductor-bootstrap"

	// commissioned is the node status the bootstrap node must reach
	// before the environment bootstrap can target it.
	commissionedStatus = 4
)

// Steps returns the fixed installation topology. The list is ordered by
// percent; NewPipeline rejects anything else.
func Steps() []Step {
	return []Step{
		{Percent: 5, Label: "Starting provisioning service", Action: startProvisioningService},
		{Percent: 15, Label: "Creating admin user", Action: createAdminUser},
		{Percent: 25, Label: "Generating credentials", Action: generateCredentials},
		{Percent: 35, Label: "Waiting for cluster registration", Action: waitForRegistration},
		{Percent: 50, Label: "Configuring networks", Action: configureNetworks},
		{Percent: 60, Label: "Configuring DNS", Action: configureDNS},
		{Percent: 75, Label: "Importing boot images", Action: importBootImages},
		{Percent: 85, Label: "Writing environment", Action: writeEnvironment},
		{Percent: 95, Label: "Creating bootstrap node", Action: createBootstrapNode},
		{Percent: 100, Label: "Bootstrapping environment", Action: bootstrapEnvironment},
	}
}

func startProvisioningService(ctx *Context) error {
	iface, err := ctx.State.Get(KeyIface)
	if err != nil {
		return err
	}

	// Keep a restorable copy of the host network config before the
	// provisioning service starts rewriting it.
	backupDir := filepath.Join(ctx.Store.Dir(), "network-backup")
	if _, err := runner.CheckRun(ctx, ctx.Runner, "mkdir", []string{"-p", backupDir}, opts(ctx)); err != nil {
		return err
	}
	if _, err := runner.CheckRun(ctx, ctx.Runner, "cp", []string{"-a", "/etc/network/interfaces", backupDir}, opts(ctx)); err != nil {
		return err
	}
	if err := ctx.Store.Save("interface", []byte(iface)); err != nil {
		return err
	}

	// Package installs contend for the dpkg lock with unattended
	// upgrades; back off and retry rather than failing the run.
	err = retry.WithBackoff(ctx, "install "+metalPackage, func() error {
		_, err := runner.CheckRun(ctx, ctx.Runner, "apt-get", []string{"install", "--yes", metalPackage}, opts(ctx))
		return err
	}, retry.WithMaxAttempts(3), retry.WithInitialDelay(ctx.Timeouts.PollInterval))
	if err != nil {
		return fmt.Errorf("failed to install %s: %w", metalPackage, err)
	}
	if _, err := runner.CheckRun(ctx, ctx.Runner, "systemctl", []string{"enable", "--now", "metal-region"}, opts(ctx)); err != nil {
		return err
	}
	return nil
}

func createAdminUser(ctx *Context) error {
	secret, err := keygen.RandomSecret()
	if err != nil {
		return err
	}
	ctx.State.Set(KeyAdminSecret, secret)

	_, err = runner.CheckRun(ctx, ctx.Runner, metalAdminCLI, []string{
		"createadmin",
		"--username", "root",
		"--password", secret,
		"--email", "root@example.com",
	}, opts(ctx))
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

func generateCredentials(ctx *Context) error {
	result, err := runner.CheckRun(ctx, ctx.Runner, metalAdminCLI, []string{"apikey", "--username", "root"}, opts(ctx))
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	apikey := strings.TrimSpace(result.Stdout)
	if apikey == "" {
		return fmt.Errorf("admin tool returned an empty API key")
	}
	ctx.State.Set(KeyAPIKey, apikey)

	if _, err := runner.CheckRun(ctx, ctx.Runner, metalCLI, []string{"login", envName, localEndpoint, apikey}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to log in to provisioning service: %w", err)
	}

	keypair, err := keygen.GenerateRSAKeyPair(4096)
	if err != nil {
		return fmt.Errorf("failed to generate SSH keypair: %w", err)
	}
	if err := keypair.WriteTo(filepath.Join(ctx.Store.Dir(), "ssh")); err != nil {
		return err
	}
	return nil
}

func waitForRegistration(ctx *Context) error {
	var uuid string
	err := retry.Poll(ctx, "cluster registration", ctx.Timeouts.RegistrationPolls, ctx.Timeouts.PollInterval,
		func() (bool, error) {
			result, err := ctx.Runner.Run(ctx, metalCLI, []string{"node-groups", "list"}, opts(ctx))
			if err != nil || !result.Ok() {
				return false, fmt.Errorf("node-groups list failed")
			}
			u, err := firstNodeGroupUUID(result.Stdout)
			if err != nil {
				return false, err
			}
			// "master" means the cluster controller has not registered yet.
			if u == "master" {
				return false, nil
			}
			uuid = u
			return true, nil
		})
	if err != nil {
		return err
	}
	ctx.State.Set(KeyClusterUUID, uuid)
	return nil
}

func configureNetworks(ctx *Context) error {
	ifaceIP, err := ctx.State.Get(KeyIfaceIP)
	if err != nil {
		return err
	}
	ifaceNet, err := ctx.State.Get(KeyIfaceNet)
	if err != nil {
		return err
	}
	clusterUUID, err := ctx.State.Get(KeyClusterUUID)
	if err != nil {
		return err
	}

	prefix, err := netip.ParsePrefix(ifaceNet)
	if err != nil {
		return fmt.Errorf("bad interface network %q: %w", ifaceNet, err)
	}
	hostAddr, err := netip.ParseAddr(ifaceIP)
	if err != nil {
		return fmt.Errorf("bad interface address %q: %w", ifaceIP, err)
	}

	iface, err := ctx.State.Get(KeyIface)
	if err != nil {
		return err
	}

	// Enslave the managed interface to the bridge the bootstrap VM and
	// the provisioned nodes attach to. An already existing bridge is fine.
	_, _ = ctx.Runner.Run(ctx, "ip", []string{"link", "add", "name", bridgeName, "type", "bridge"}, opts(ctx))
	if _, err := runner.CheckRun(ctx, ctx.Runner, "ip", []string{"link", "set", "dev", iface, "master", bridgeName}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to bridge %s: %w", iface, err)
	}
	if _, err := runner.CheckRun(ctx, ctx.Runner, "ip", []string{"link", "set", "dev", bridgeName, "up"}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to bring up %s: %w", bridgeName, err)
	}

	// Masquerade traffic from the managed network and let the host route.
	if _, err := runner.CheckRun(ctx, ctx.Runner, "iptables", []string{
		"-t", "nat", "-A", "POSTROUTING",
		"-s", prefix.String(), "!", "-d", prefix.String(), "-j", "MASQUERADE",
	}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to configure NAT: %w", err)
	}
	if _, err := runner.CheckRun(ctx, ctx.Runner, "sysctl", []string{"-w", "net.ipv4.ip_forward=1"}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to enable IPv4 forwarding: %w", err)
	}
	if _, err := netutil.DefaultGateway(); err != nil {
		ctx.Log.Warn().Err(err).Msg("host has no default route; provisioned nodes will lack outbound connectivity")
	}

	// The host address on the managed interface is the nodes' gateway.
	gateway := hostAddr
	ctx.State.Set(KeyGateway, gateway.String())

	low, high := netutil.IPRangeMax(prefix, []netip.Addr{hostAddr})
	ctx.State.Set(KeyDHCPLow, low.String())
	ctx.State.Set(KeyDHCPHigh, high.String())

	if err := configureNodeGroupInterface(ctx, clusterUUID, hostAddr, prefix, gateway, low, high); err != nil {
		return err
	}

	// An existing DHCP server on the managed segment makes the network
	// flaky but is not fatal; record it for post-mortem diagnosis.
	result, err := ctx.Runner.Run(ctx, "nmap", []string{"--script", "broadcast-dhcp-discover", "-e", iface}, opts(ctx))
	if err == nil && strings.Contains(result.Stdout, "DHCPOFFER") {
		ctx.Log.Warn().Str("iface", iface).Msg("existing DHCP server detected on managed interface")
	}

	return nil
}

func configureNodeGroupInterface(ctx *Context, clusterUUID string, host netip.Addr, prefix netip.Prefix, gateway, low, high netip.Addr) error {
	result, err := runner.CheckRun(ctx, ctx.Runner, metalCLI, []string{"node-group-interfaces", "list", clusterUUID}, opts(ctx))
	if err != nil {
		return fmt.Errorf("failed to list node-group interfaces: %w", err)
	}
	iface, err := ctx.State.Get(KeyIface)
	if err != nil {
		return err
	}
	exists, err := nodeGroupInterfaceExists(result.Stdout, iface)
	if err != nil {
		return err
	}

	params := []string{
		"ip=" + host.String(),
		"interface=" + iface,
		"management=2",
		"subnet_mask=" + netutil.Netmask(prefix),
		"broadcast_ip=" + netutil.Broadcast(prefix).String(),
		"router_ip=" + gateway.String(),
		"ip_range_low=" + low.String(),
		"ip_range_high=" + high.String(),
	}

	var args []string
	if exists {
		args = append([]string{"node-group-interface", "update", clusterUUID, iface}, params...)
	} else {
		args = append([]string{"node-group-interfaces", "new", clusterUUID}, params...)
	}
	if _, err := runner.CheckRun(ctx, ctx.Runner, metalCLI, args, opts(ctx)); err != nil {
		return fmt.Errorf("unable to create or update managed network: %w", err)
	}
	return nil
}

func configureDNS(ctx *Context) error {
	forwarders, err := upstreamNameservers("/etc/resolv.conf")
	if err != nil {
		return err
	}
	if len(forwarders) > 0 {
		_, err := runner.CheckRun(ctx, ctx.Runner, metalCLI, []string{
			"set-config", "name=upstream_dns", "value=" + strings.Join(forwarders, " "),
		}, opts(ctx))
		if err != nil {
			return fmt.Errorf("failed to configure upstream DNS: %w", err)
		}
	}

	// The host resolves through the service it just configured. Both of
	// these are tolerated: the resolver config may be immutable and the
	// service may not be running yet.
	_, _ = ctx.Runner.Run(ctx, "sed", []string{"-i", "1i nameserver 127.0.0.1", "/etc/resolv.conf"}, opts(ctx))
	_, _ = ctx.Runner.Run(ctx, "systemctl", []string{"restart", "bind9"}, opts(ctx))
	return nil
}

func importBootImages(ctx *Context) error {
	clusterUUID, err := ctx.State.Get(KeyClusterUUID)
	if err != nil {
		return err
	}

	if proxy := os.Getenv("METAL_HTTP_PROXY"); proxy != "" {
		_, err := runner.CheckRun(ctx, ctx.Runner, metalCLI, []string{
			"set-config", "name=http_proxy", "value=" + proxy,
		}, opts(ctx))
		if err != nil {
			return fmt.Errorf("failed to set proxy config: %w", err)
		}
	}

	if _, err := runner.CheckRun(ctx, ctx.Runner, metalCLI, []string{"boot-resources", "import"}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to start boot image import: %w", err)
	}

	// Image downloads take a long time; the budget is large but hard.
	return retry.Poll(ctx, "boot image import", ctx.Timeouts.ImagePolls, ctx.Timeouts.ImagePollInterval,
		func() (bool, error) {
			result, err := ctx.Runner.Run(ctx, metalCLI, []string{"boot-images", "read", clusterUUID}, opts(ctx))
			if err != nil || !result.Ok() {
				return false, fmt.Errorf("boot-images read failed")
			}
			return strings.TrimSpace(result.Stdout) != "[]", nil
		})
}

func writeEnvironment(ctx *Context) error {
	gateway, err := ctx.State.Get(KeyGateway)
	if err != nil {
		return err
	}
	apikey, err := ctx.State.Get(KeyAPIKey)
	if err != nil {
		return err
	}
	secret, err := ctx.State.Get(KeyAdminSecret)
	if err != nil {
		return err
	}

	if err := ctx.Store.SaveCredentials(store.Credentials{
		APIHost:     gateway,
		APIKey:      apikey,
		AdminSecret: secret,
	}); err != nil {
		return err
	}

	return ctx.Store.SaveEnvironment(envName, store.Environment{
		Type:           envName,
		Server:         fmt.Sprintf("http://%s/metal/api/2.0", gateway),
		Credential:     apikey,
		AdminSecret:    secret,
		DefaultRelease: "noble",
		ProxyURL:       os.Getenv("METAL_HTTP_PROXY"),
		CloneImages:    true,
	})
}

func createBootstrapNode(ctx *Context) error {
	clusterUUID, err := ctx.State.Get(KeyClusterUUID)
	if err != nil {
		return err
	}

	if _, err := runner.CheckRun(ctx, ctx.Runner, "usermod", []string{"-a", "-G", "libvirtd", "metal"}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to grant libvirt access: %w", err)
	}
	if _, err := runner.CheckRun(ctx, ctx.Runner, "systemctl", []string{"restart", "metal-clusterd"}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to restart cluster controller: %w", err)
	}

	if _, err := runner.CheckRun(ctx, ctx.Runner, "virt-install", []string{
		"--name", bootstrapNode,
		"--ram=2048", "--vcpus=1",
		"--hvm", "--virt-type=kvm", "--pxe",
		"--boot", "network,hd",
		"--graphics", "none", "--noautoconsole",
		"--disk=/var/lib/libvirt/images/" + bootstrapNode + ".qcow2,bus=virtio,format=qcow2,sparse=true,size=20",
		"--network=bridge=" + bridgeName + ",model=virtio",
	}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to create bootstrap VM: %w", err)
	}

	result, err := runner.CheckRun(ctx, ctx.Runner, "virsh", []string{"domiflist", bootstrapNode}, opts(ctx))
	if err != nil {
		return fmt.Errorf("failed to inspect bootstrap VM: %w", err)
	}
	mac, err := firstMAC(result.Stdout)
	if err != nil {
		return err
	}
	ctx.State.Set(KeyBootstrapMAC, mac)

	if _, err := runner.CheckRun(ctx, ctx.Runner, metalCLI, []string{
		"nodes", "new",
		"architecture=amd64/generic",
		"mac_addresses=" + mac,
		"hostname=" + bootstrapNode,
		"nodegroup=" + clusterUUID,
		"power_type=virsh",
		"power_parameters_power_address=qemu:///system",
		"power_parameters_power_id=" + bootstrapNode,
	}, opts(ctx)); err != nil {
		return fmt.Errorf("failed to enlist bootstrap node: %w", err)
	}

	result, err = runner.CheckRun(ctx, ctx.Runner, metalCLI, []string{"nodes", "list", "mac_address=" + mac}, opts(ctx))
	if err != nil {
		return fmt.Errorf("failed to look up bootstrap node: %w", err)
	}
	systemID, err := firstSystemID(result.Stdout)
	if err != nil {
		return err
	}
	ctx.State.Set(KeyBootstrapID, systemID)

	return retry.Poll(ctx, "bootstrap node commissioning", ctx.Timeouts.NodeStatusPolls, ctx.Timeouts.PollInterval,
		func() (bool, error) {
			result, err := ctx.Runner.Run(ctx, metalCLI, []string{"nodes", "list", "id=" + systemID}, opts(ctx))
			if err != nil || !result.Ok() {
				return false, fmt.Errorf("nodes list failed")
			}
			status, err := firstNodeStatus(result.Stdout)
			if err != nil {
				return false, err
			}
			return status == commissionedStatus, nil
		})
}

func bootstrapEnvironment(ctx *Context) error {
	// The bootstrap runs as the install user against the environment
	// descriptor written earlier. It is long-running; launch it in the
	// background and await completion by polling rather than blocking.
	done := make(chan struct{})
	var bootstrapErr error
	go func() {
		defer close(done)
		_, bootstrapErr = runner.CheckRun(ctx, ctx.Runner, conductorCLI, []string{"bootstrap"}, runner.Options{
			RunAs:   config.InstallUser(),
			Timeout: ctx.Timeouts.Bootstrap,
		})
	}()

	attempts := int(ctx.Timeouts.Bootstrap/ctx.Timeouts.PollInterval) + 1
	err := retry.Poll(ctx, "environment bootstrap", attempts, ctx.Timeouts.PollInterval,
		func() (bool, error) {
			select {
			case <-done:
				return true, nil
			default:
				return false, nil
			}
		})
	if err != nil {
		return err
	}
	if bootstrapErr != nil {
		return fmt.Errorf("environment bootstrap failed: %w", bootstrapErr)
	}

	// Poke the status endpoint once so the first post-install status
	// call does not race the fresh controller.
	if _, err := runner.CheckRun(ctx, ctx.Runner, conductorCLI, []string{"status"}, runner.Options{
		RunAs:   config.InstallUser(),
		Timeout: ctx.Timeouts.Command,
	}); err != nil {
		return fmt.Errorf("controller not answering after bootstrap: %w", err)
	}

	if ctx.Options.EnableSwift {
		if _, err := runner.CheckRun(ctx, ctx.Runner, conductorCLI, []string{"deploy", "object-store"}, runner.Options{
			RunAs:   config.InstallUser(),
			Timeout: ctx.Timeouts.Command,
		}); err != nil {
			return fmt.Errorf("failed to deploy object storage service: %w", err)
		}
	}
	return nil
}

// opts builds the default per-command options.
func opts(ctx *Context) runner.Options {
	return runner.Options{Timeout: ctx.Timeouts.Command}
}

// upstreamNameservers extracts nameserver addresses from a resolv.conf.
func upstreamNameservers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var servers []string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "nameserver" {
			servers = append(servers, fields[1])
		}
	}
	return servers, nil
}

var macPattern = regexp.MustCompile(`(?i)\b([0-9a-f]{2}(?::[0-9a-f]{2}){5})\b`)

// firstMAC extracts the first MAC address from virsh domiflist output.
func firstMAC(out string) (string, error) {
	mac := macPattern.FindString(out)
	if mac == "" {
		return "", fmt.Errorf("no MAC address in VM interface listing")
	}
	return mac, nil
}

func firstNodeGroupUUID(out string) (string, error) {
	var groups []struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		return "", fmt.Errorf("bad node-groups listing: %w", err)
	}
	if len(groups) == 0 {
		return "", fmt.Errorf("empty node-groups listing")
	}
	return groups[0].UUID, nil
}

func firstSystemID(out string) (string, error) {
	var nodes []struct {
		SystemID string `json:"system_id"`
	}
	if err := json.Unmarshal([]byte(out), &nodes); err != nil {
		return "", fmt.Errorf("bad nodes listing: %w", err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("bootstrap node not found")
	}
	return nodes[0].SystemID, nil
}

func firstNodeStatus(out string) (int, error) {
	var nodes []struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &nodes); err != nil {
		return 0, fmt.Errorf("bad nodes listing: %w", err)
	}
	if len(nodes) == 0 {
		return 0, fmt.Errorf("bootstrap node not found")
	}
	return nodes[0].Status, nil
}

func nodeGroupInterfaceExists(out, iface string) (bool, error) {
	var interfaces []struct {
		Interface string `json:"interface"`
	}
	if err := json.Unmarshal([]byte(out), &interfaces); err != nil {
		return false, fmt.Errorf("bad node-group-interfaces listing: %w", err)
	}
	for _, i := range interfaces {
		if i.Interface == iface {
			return true, nil
		}
	}
	return false, nil
}
