package sqlinline

// Account init is a conditional insert followed by a plain select in one
// statement so concurrent first access for the same user id cannot create two
// rows. Under read committed a racing first access can still leave both
// branches empty: the insert waits out the winner and skips, while the outer
// select runs on a snapshot taken before the winner committed. Callers retry
// with QSelectAccount when this statement returns no rows.
const QInitAccount = `--sql 9a8705ce-172d-4629-b5e8-e1109c550f02
with created as (
    insert into accounts (user_id, credits, plan, subscription_id, created_at, updated_at)
    values ($1::text, $2::int, 'none', null, now(), now())
    on conflict (user_id) do nothing
    returning user_id, credits, plan, subscription_id, created_at, updated_at
)
select user_id, credits, plan, subscription_id, created_at, updated_at from created
union all
select user_id, credits, plan, subscription_id, created_at, updated_at from accounts where user_id = $1::text
limit 1;
`

const QSelectAccount = `--sql a6315586-a2ee-4760-a096-8f5c8ac4f7d7
select user_id, credits, plan, subscription_id, created_at, updated_at
from accounts
where user_id = $1::text
limit 1;
`

// The debit is a single conditional update; the where clause carries the
// non-negative balance invariant so two racing debits can never overdraw.
const QTryDebit = `--sql 6c9d44eb-a82a-4c44-848e-be74f7cf0219
update accounts
set credits = credits - $2::int,
    updated_at = now()
where user_id = $1::text
  and credits >= $2::int;
`

const QCreditAccount = `--sql 8bc6d85a-4f1a-4bd2-a99f-40038b2975e5
insert into accounts (user_id, credits, plan, subscription_id, created_at, updated_at)
values ($1::text, $2::int, $3::text, nullif($4::text, ''), now(), now())
on conflict (user_id) do update set
    credits = accounts.credits + excluded.credits,
    plan = excluded.plan,
    subscription_id = excluded.subscription_id,
    updated_at = now();
`

const QClearSubscription = `--sql 07fee502-f096-4cf8-b3c3-8f111de0750a
update accounts
set plan = 'none',
    subscription_id = null,
    updated_at = now()
where subscription_id = $1::text;
`

const QSelectSubscriptionID = `--sql 198b38ea-477d-4a60-bb2b-964fb70bb1e8
select coalesce(subscription_id, '')
from accounts
where user_id = $1::text
limit 1;
`
