package insights

// swapsSchemaDescription describes the ClickHouse schema used for NL-to-SQL
// prompting.
//
// Keeping it in sync with the actual ClickHouse table definition in init.sql.
const swapsSchemaDescription = `
Database: gateway
Table: swaps

Columns:
  - signature     String     -- Solana transaction signature (unique id)
  - timestamp     DateTime   -- When the swap was executed (UTC)
  - wallet        String     -- Base58 wallet address that executed the swap
  - pair          String     -- Trading pair, e.g. "SOL/USDC"
  - input_mint    String     -- Mint address of the token sold
  - output_mint   String     -- Mint address of the token bought
  - amount_in     Float64    -- Amount of the input token, UI units
  - estimated_out Float64    -- Quoted output amount, UI units
  - slippage_bps  UInt16     -- Slippage tolerance in basis points
  - status        String     -- "processing", "success" or "error"
  - error         String     -- Failure reason, empty on success

Notes:
  - Only rows with status = 'success' represent completed swaps.
  - For volume calculations SUM(amount_in) or SUM(estimated_out) depending on the unit you care about.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
`
