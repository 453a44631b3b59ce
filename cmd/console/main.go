package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/defistate/dclstate-client-go/cmd/client/config"
	"github.com/defistate/dclstate-client-go/differ"
	"github.com/defistate/dclstate-client-go/engine"
	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
	"github.com/defistate/dclstate-client-go/streams/jsonrpc/client"
	nearstateops "github.com/defistate/dclstate-client-go/streams/jsonrpc/stateops/chains/near"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// --- VISUAL CONSTANTS ---
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"

	DefaultClientStateBufferSize = 100
)

// header prints a styled section header
func header(title string) {
	fmt.Println("\n" + Bold + Cyan + ":: " + title + " ::" + Reset)
}

// SafeState is a thread-safe container for the latest engine state.
type SafeState struct {
	mu    sync.RWMutex
	state *engine.State
}

func (s *SafeState) Update(newState *engine.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = newState
}

func (s *SafeState) Get() *engine.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

type ChainStateOps interface {
	Diff(old *engine.State, new *engine.State) (*differ.StateDiff, error)
	Patch(oldState *engine.State, diff *differ.StateDiff) (*engine.State, error)
	DecodeStateJSON(schema engine.ProtocolSchema, data json.RawMessage) (any, error)
	DecodeStateDiffJSON(schema engine.ProtocolSchema, data json.RawMessage) (any, error)
}

func main() {
	// --- 1. SETUP LOGGING (To File) ---
	logFile, err := os.OpenFile("client.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		panic(fmt.Sprintf("Failed to open log file: %v", err))
	}
	defer logFile.Close()

	rootLogHandler := slog.NewJSONHandler(logFile, nil)
	rootLogger := slog.New(rootLogHandler)

	closeApp := func() {
		fmt.Println("\n" + Red + "Fatal error occurred. Check client.log for details." + Reset)
		os.Exit(1)
	}

	// --- 2. CONFIG & CONTEXT ---
	prometheusRegistry := prometheus.DefaultRegisterer
	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		closeApp()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 3. INITIALIZE OPS ---
	var chainStateOps ChainStateOps

	switch cfg.ChainID {
	case "mainnet", "testnet":
		chainStateOps, err = nearstateops.NewStateOps(rootLogger, prometheusRegistry, cfg.ProtocolFeeRate)
		if err != nil {
			rootLogger.Error("Failed to initialize Chain State Ops", "chain_id", cfg.ChainID, "error", err)
			closeApp()
		}
	default:
		rootLogger.Error(fmt.Sprintf("Chain State Ops not found for chain with ID %s", cfg.ChainID))
		closeApp()
	}

	// --- 4. INITIALIZE CLIENT ---
	client, err := client.NewClient(
		ctx,
		client.Config{
			URL:              cfg.StateStreamURL,
			Logger:           rootLogger.With("component", "jsonrpc-client"),
			BufferSize:       DefaultClientStateBufferSize,
			StatePatcher:     chainStateOps.Patch,
			StateDecoder:     chainStateOps.DecodeStateJSON,
			StateDiffDecoder: chainStateOps.DecodeStateDiffJSON,
		},
	)

	if err != nil {
		rootLogger.Error("Failed to initialize Client", "chain_id", cfg.ChainID, "error", err)
		closeApp()
	}

	// --- 5. START CONSOLE & STATE LOOP ---
	safeState := &SafeState{}

	fmt.Println(Green + "Starting DCL State Client..." + Reset)
	fmt.Println("Logs are being written to 'client.log'")
	go runConsole(ctx, safeState, cfg.ProtocolFeeRate)

	for {
		select {
		case n := <-client.State():
			safeState.Update(n)

		case err := <-client.Err():
			rootLogger.Error("Fatal client error", "error", err)
			closeApp()

		case <-ctx.Done():
			fmt.Println("\n" + Yellow + "Shutting down..." + Reset)
			return
		}
	}
}

// runConsole handles user input and display.
func runConsole(ctx context.Context, safeState *SafeState, protocolFeeRate uint32) {
	reader := bufio.NewReader(os.Stdin)
	time.Sleep(500 * time.Millisecond)

	for {
		if ctx.Err() != nil {
			return
		}

		printMenu()

		fmt.Print(Bold + "Enter selection: " + Reset)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error reading input:", err)
			continue
		}
		input = strings.TrimSpace(input)

		handleCommand(input, safeState, reader, protocolFeeRate)

		fmt.Println("\n" + Gray + "[Press Enter to continue]" + Reset)
		reader.ReadString('\n')
	}
}

func printMenu() {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(Bold + "DCL STATE CLIENT" + Reset + Gray + " | v0.1.0" + Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %s1.%s Current Block Info\n", Cyan, Reset)
	fmt.Printf(" %s2.%s Protocol Summary\n", Cyan, Reset)
	fmt.Printf(" %s3.%s Pool Details %s(by Pool ID)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s4.%s Find Pools   %s(by Token Account)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s5.%s Watch Pool   %s(Live Monitor)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s6.%s Quote        %s(Exact-Input Swap)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s7.%s Market Depth %s(Liquidity & Orders)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %sh.%s Help / Architecture\n", Yellow, Reset)
	fmt.Printf(" %sq.%s Quit\n", Red, Reset)
	fmt.Println("")
}

func handleCommand(input string, safeState *SafeState, reader *bufio.Reader, protocolFeeRate uint32) {
	state := safeState.Get()

	// Allow help and quit even if state isn't ready
	if state == nil && input != "q" && input != "h" {
		fmt.Println("\n" + Yellow + "[INFO] Waiting for first state update... (Check connection/logs)" + Reset)
		return
	}

	switch input {
	case "1":
		printBlockInfo(state)
	case "2":
		printProtocolSummary(state)
	case "3":
		printPoolDetails(state, reader)
	case "4":
		findPoolsByToken(state, reader)
	case "5":
		watchPool(safeState, reader)
	case "6":
		quoteSwap(state, reader, protocolFeeRate)
	case "7":
		printMarketDepth(state, reader, protocolFeeRate)
	case "h":
		printHelp()
	case "q":
		exitConsole()
	default:
		fmt.Println(Red + "Unknown command." + Reset)
	}
}

// --- COMMAND HANDLERS ---

func printHelp() {
	// Clear screen to make reading the architecture easy
	fmt.Print("\033[H\033[2J")

	header("DCL STATE STREAM ARCHITECTURE")
	fmt.Println(Bold + "Concept: Block-Synchronized Replay" + Reset)
	fmt.Println("The stream delivers a block-synchronized view of every tracked DCL")
	fmt.Println("registry, reconstructed off-chain from the contract's event log.")
	fmt.Println("")

	fmt.Println(Bold + "1. THE DATA STRUCTURE" + Reset)
	fmt.Println("   The root object is " + Cyan + "State" + Reset + ", which contains:")
	fmt.Println("   - " + Yellow + "Block" + Reset + ": Essential context (Height, Hash, Timestamp).")
	fmt.Println("   - " + Yellow + "Protocols" + Reset + ": A map of Protocol IDs to their registry view.")
	fmt.Println("")

	fmt.Println(Bold + "2. THE REGISTRY" + Reset)
	fmt.Printf("   A. %sPools%s\n", Cyan, Reset)
	fmt.Println("      - Keyed by " + Green + "tokenX|tokenY|fee" + Reset + ", price as a Q96 sqrt price.")
	fmt.Println("      - Liquidity lives on points; points align to the pool's point delta.")
	fmt.Println("")
	fmt.Printf("   B. %sPoint Info%s\n", Cyan, Reset)
	fmt.Println("      - Per-point liquidity deltas plus the resident limit order book.")
	fmt.Println("      - Limit orders fill passively as swaps cross their point.")
	fmt.Println("")
	fmt.Printf("   C. %sUsers%s\n", Cyan, Reset)
	fmt.Println("      - Liquidity positions and limit orders keyed by owner account.")
	fmt.Println("")

	fmt.Println(Bold + "3. DERIVED QUERIES" + Reset)
	fmt.Println("   Quotes, market depth, and liquidity ranges are computed locally")
	fmt.Println("   from the registry view. No round trip to the chain is needed.")
	fmt.Println("")

	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
	fmt.Println(Bold + "PURPOSE OF THIS CONSOLE" + Reset)
	fmt.Println("This tool is designed to help you understand and utilize the stream.")
	fmt.Println("Run the available commands to explore pools, depth, and quotes.")
	fmt.Println(Green + "Goal: " + Reset + "Use these functions as examples to build your own")
	fmt.Println("routing or market-making logic on top of the stream.")
	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
}

func printBlockInfo(state *engine.State) {
	ts := time.Unix(0, int64(state.Block.Timestamp)).Format("15:04:05")

	fmt.Printf("\n%sSTATUS  ::%s Block %s#%d%s | Chain %s%s%s | Time %s%s%s\n",
		Green, Reset,
		Bold, state.Block.Height, Reset,
		Bold, state.ChainID, Reset,
		Bold, ts, Reset,
	)
	fmt.Printf("%sHash    ::%s %s\n", Gray, Reset, state.Block.Hash)
}

func printProtocolSummary(state *engine.State) {
	header("PROTOCOL SUMMARY")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "PROTOCOL ID\tSCHEMA\tPOOLS\tSTATUS\t")
	fmt.Fprintln(w, "-----------\t------\t-----\t------\t")

	errCount := 0
	for id, p := range state.Protocols {
		status := Green + "OK" + Reset
		if p.Error != "" {
			status = Red + "ERROR" + Reset
			errCount++
		}

		pools := "-"
		if view, ok := p.Data.(*dcl.RegistryView); ok {
			pools = fmt.Sprintf("%d", len(view.Pools))
		}

		// Truncate long IDs for display
		pID := string(id)
		if len(pID) > 25 {
			pID = pID[:22] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", pID, p.Schema, pools, status)
	}
	w.Flush()

	fmt.Printf("\n%sProtocols with Errors: %d%s\n", Bold, errCount, Reset)
}

func printPoolDetails(state *engine.State, reader *bufio.Reader) {
	view := resolveRegistry(state, reader)
	if view == nil {
		return
	}

	fmt.Print("\n" + Bold + "[Pool Details] Enter Pool ID (tokenX|tokenY|fee): " + Reset)
	poolID := readPoolID(reader)
	if poolID == "" {
		return
	}

	printPoolView(view, poolID)
}

func findPoolsByToken(state *engine.State, reader *bufio.Reader) {
	view := resolveRegistry(state, reader)
	if view == nil {
		return
	}

	fmt.Print("\n" + Bold + "[Find Pools] Enter Token Account ID: " + Reset)
	input, _ := reader.ReadString('\n')
	token := strings.TrimSpace(input)
	if token == "" {
		return
	}

	matched := make([]dcl.PoolID, 0)
	for id, p := range view.Pools {
		if p.TokenX == token || p.TokenY == token {
			matched = append(matched, id)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })

	if len(matched) == 0 {
		fmt.Println(Red + "[NOT FOUND] No pools hold this token." + Reset)
		return
	}

	header(strings.ToUpper(fmt.Sprintf("POOLS FOR %s", token)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "POOL ID\tFEE\tPOINT\tLIQUIDITY\tSTATE\t")
	fmt.Fprintln(w, "-------\t---\t-----\t---------\t-----\t")

	for _, id := range matched {
		p := view.Pools[id]
		fmt.Fprintf(w, "%s\t%.2f%%\t%d\t%s\t%s\t\n",
			id, float64(p.Fee)/10000.0, p.CurrentPoint, amountString(p.Liquidity), p.RunningState)
	}
	w.Flush()

	fmt.Printf("\n%sFound %d pools.%s\n", Bold, len(matched), Reset)
}

func watchPool(safeState *SafeState, reader *bufio.Reader) {
	state := safeState.Get()
	view := resolveRegistry(state, reader)
	if view == nil {
		return
	}

	fmt.Print("\n" + Bold + "[Watch Pool] Enter Pool ID (tokenX|tokenY|fee): " + Reset)
	poolID := readPoolID(reader)
	if poolID == "" {
		return
	}

	fmt.Println(Green + "Starting Live Watch... (Press 'Enter' to stop)" + Reset)
	time.Sleep(1 * time.Second)

	stopCh := make(chan struct{})
	go func() {
		reader.ReadString('\n')
		close(stopCh)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var lastHeight uint64

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			state := safeState.Get()
			if state == nil {
				continue
			}

			if state.Block.Height > lastHeight {
				lastHeight = state.Block.Height

				fmt.Print("\033[H\033[2J")
				fmt.Printf(Bold+"\n--- LIVE MONITOR (Block: %d) ---\n"+Reset, state.Block.Height)
				fmt.Println(Gray + "Press ENTER to return to menu." + Reset)

				for _, p := range state.Protocols {
					if v, ok := p.Data.(*dcl.RegistryView); ok {
						if _, exists := v.Pools[poolID]; exists {
							printPoolView(v, poolID)
							break
						}
					}
				}
			}
		}
	}
}

func quoteSwap(state *engine.State, reader *bufio.Reader, protocolFeeRate uint32) {
	header("QUOTE (EXACT INPUT)")

	view := resolveRegistry(state, reader)
	if view == nil {
		return
	}

	// 1. Route
	fmt.Print(Bold + "1. Enter Pool IDs (comma separated): " + Reset)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	var poolIDs []dcl.PoolID
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			poolIDs = append(poolIDs, dcl.PoolID(part))
		}
	}

	// 2. Tokens
	fmt.Print(Bold + "2. Enter Input Token Account: " + Reset)
	tokenIn, _ := reader.ReadString('\n')
	tokenIn = strings.TrimSpace(tokenIn)

	fmt.Print(Bold + "3. Enter Output Token Account: " + Reset)
	tokenOut, _ := reader.ReadString('\n')
	tokenOut = strings.TrimSpace(tokenOut)

	inDecimals, outDecimals, ok := routeDecimals(view, poolIDs, tokenIn, tokenOut)
	if !ok {
		fmt.Println(Red + "[ERROR] Route tokens not found in the listed pools." + Reset)
		return
	}

	// 3. Amount
	fmt.Print(Bold + "4. Enter Input Amount (e.g. 1.5): " + Reset)
	amountInput, _ := reader.ReadString('\n')
	amountInput = strings.TrimSpace(amountInput)
	amountFloat, ok := new(big.Float).SetString(amountInput)
	if !ok {
		fmt.Println(Red + "Invalid amount format." + Reset)
		return
	}

	// Scale Amount: raw = input * 10^decimals
	decimals := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(inDecimals)), nil)
	decimalsFloat := new(big.Float).SetInt(decimals)
	rawAmount := new(big.Float).Mul(amountFloat, decimalsFloat)
	rawInt, _ := rawAmount.Int(nil)

	rawIn, overflow := uint256.FromBig(rawInt)
	if overflow {
		fmt.Println(Red + "Amount too large." + Reset)
		return
	}

	fmt.Printf("\nQuoting %s %s (Raw: %s)...\n", amountInput, tokenIn, rawInt.String())

	// The quote runs on a private replica so the shared view stays untouched.
	registry, err := dcl.NewDclFromView(view, protocolFeeRate)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Failed to load registry: %v%s\n", err, Reset)
		return
	}

	result := registry.Quote("", poolIDs, tokenIn, tokenOut, rawIn, "console")
	if result == nil || result.Amount == nil {
		fmt.Println(Yellow + "No executable route for this quote." + Reset)
		return
	}

	// 4. Output Result
	header("QUOTE RESULT")

	outScale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(outDecimals)), nil)
	outFloat := new(big.Float).SetInt(result.Amount.ToBig())
	humanOut := new(big.Float).Quo(outFloat, new(big.Float).SetInt(outScale))

	fmt.Printf("%sEst. Output:%s %s %s (Raw: %s)\n", Bold, Reset,
		humanOut.Text('f', 6), tokenOut, result.Amount.Dec())
}

func printMarketDepth(state *engine.State, reader *bufio.Reader, protocolFeeRate uint32) {
	view := resolveRegistry(state, reader)
	if view == nil {
		return
	}

	fmt.Print("\n" + Bold + "[Market Depth] Enter Pool ID (tokenX|tokenY|fee): " + Reset)
	poolID := readPoolID(reader)
	if poolID == "" {
		return
	}

	registry, err := dcl.NewDclFromView(view, protocolFeeRate)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Failed to load registry: %v%s\n", err, Reset)
		return
	}

	depth, err := registry.GetMarketDepth(poolID, 10)
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}

	header(strings.ToUpper(fmt.Sprintf("MARKET DEPTH %s", poolID)))
	fmt.Printf(" %s%-15s%s %d\n", Gray, "Current Point:", Reset, depth.CurrentPoint)
	fmt.Printf(" %s%-15s%s %s\n", Gray, "Active L:", Reset, uintString(depth.AmountL))
	fmt.Printf(" %s%-15s%s %s\n", Gray, "Active LX:", Reset, uintString(depth.AmountLX))

	if len(depth.Liquidities) > 0 {
		fmt.Println("\n" + Bold + "Liquidity Ranges:" + Reset)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		fmt.Fprintln(w, "LEFT\tRIGHT\tAMOUNT L\t")
		for _, left := range sortedKeys(depth.Liquidities) {
			r := depth.Liquidities[left]
			fmt.Fprintf(w, "%d\t%d\t%s\t\n", r.LeftPoint, r.RightPoint, uintString(r.AmountL))
		}
		w.Flush()
	}

	if len(depth.Orders) > 0 {
		fmt.Println("\n" + Bold + "Resident Orders:" + Reset)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
		fmt.Fprintln(w, "POINT\tSELLING X\tSELLING Y\t")
		for _, point := range sortedKeys(depth.Orders) {
			o := depth.Orders[point]
			fmt.Fprintf(w, "%d\t%s\t%s\t\n", o.Point, uintString(o.AmountX), uintString(o.AmountY))
		}
		w.Flush()
	}
}

// --- HELPERS ---

// resolveRegistry picks the protocol to inspect. With a single DCL protocol
// in the state it is chosen automatically.
func resolveRegistry(state *engine.State, reader *bufio.Reader) *dcl.RegistryView {
	views := make(map[engine.ProtocolID]*dcl.RegistryView)
	for id, p := range state.Protocols {
		if v, ok := p.Data.(*dcl.RegistryView); ok {
			views[id] = v
		}
	}

	switch len(views) {
	case 0:
		fmt.Println(Red + "[ERROR] No DCL registry in the current state." + Reset)
		return nil
	case 1:
		for _, v := range views {
			return v
		}
	}

	fmt.Println("\n" + Bold + "Available protocols:" + Reset)
	ids := make([]engine.ProtocolID, 0, len(views))
	for id := range views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Printf("  - %s\n", id)
	}

	fmt.Print(Bold + "Enter Protocol ID: " + Reset)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	view, ok := views[engine.ProtocolID(input)]
	if !ok {
		fmt.Println(Red + "[NOT FOUND] Unknown protocol ID." + Reset)
		return nil
	}
	return view
}

func readPoolID(reader *bufio.Reader) dcl.PoolID {
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	id := dcl.PoolID(input)
	if _, _, _, err := id.Parse(); err != nil {
		fmt.Printf(Red+"[ERROR] Invalid pool ID: %v%s\n", err, Reset)
		return ""
	}
	return id
}

func printPoolView(view *dcl.RegistryView, poolID dcl.PoolID) {
	pool, ok := view.Pools[poolID]
	if !ok {
		fmt.Println(Red + "[NOT FOUND] Pool ID not found in registry." + Reset)
		return
	}

	header("POOL DETAILS")

	printField := func(key string, value any) {
		fmt.Printf("  %s%-18s%s %v\n", Gray, key+":", Reset, value)
	}

	printField("Pool ID", pool.PoolID)
	printField("Token X", fmt.Sprintf("%s (%d decimals)", pool.TokenX, pool.TokenXDecimal))
	printField("Token Y", fmt.Sprintf("%s (%d decimals)", pool.TokenY, pool.TokenYDecimal))
	printField("Fee", fmt.Sprintf("%.2f%%", float64(pool.Fee)/10000.0))
	printField("Point Delta", pool.PointDelta)
	printField("Current Point", fmt.Sprintf("%s%d%s", Yellow, pool.CurrentPoint, Reset))
	printField("Sqrt Price (Q96)", amountString(pool.SqrtPrice96))
	printField("Liquidity", amountString(pool.Liquidity))
	printField("Liquidity X", amountString(pool.LiquidityX))
	printField("Total X", amountString(pool.TotalX))
	printField("Total Y", amountString(pool.TotalY))
	printField("Order X", amountString(pool.TotalOrderX))
	printField("Order Y", amountString(pool.TotalOrderY))
	printField("Volume X In", amountString(pool.VolumeXIn))
	printField("Volume Y In", amountString(pool.VolumeYIn))
	printField("State", pool.RunningState)

	if points, ok := view.PointInfo[poolID]; ok {
		printField("Active Points", len(points))
	}
}

// routeDecimals resolves the decimals of the route's entry and exit tokens
// from the listed pools.
func routeDecimals(view *dcl.RegistryView, poolIDs []dcl.PoolID, tokenIn, tokenOut string) (uint8, uint8, bool) {
	var inDec, outDec uint8
	foundIn, foundOut := false, false

	for _, id := range poolIDs {
		pool, ok := view.Pools[id]
		if !ok {
			continue
		}
		for _, side := range []struct {
			token string
			dec   uint8
		}{{pool.TokenX, pool.TokenXDecimal}, {pool.TokenY, pool.TokenYDecimal}} {
			if side.token == tokenIn && !foundIn {
				inDec = side.dec
				foundIn = true
			}
			if side.token == tokenOut {
				outDec = side.dec
				foundOut = true
			}
		}
	}
	return inDec, outDec, foundIn && foundOut
}

func amountString(a *dcl.Amount) string {
	if a == nil {
		return "0"
	}
	return a.Dec()
}

func uintString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func exitConsole() {
	fmt.Println(Yellow + "Exiting..." + Reset)
	os.Exit(0)
}

func loadConfig() (*config.ClientConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}
